package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgramTickDrawsAndSwaps(t *testing.T) {
	var sink, evidence, trace bytes.Buffer
	cfg := ProgramConfig{
		Cols: 10, Rows: 3,
		Profile:   truecolorProfile(),
		Mode:      ModeAltScreen,
		Selector:  DefaultSelectorConfig(),
		Scheduler: DefaultSchedulerConfig(),
		Seed:      7,
	}
	p := NewProgram(cfg, &sink, &evidence, &trace)

	w := p.Arena().Register()
	p.Arena().MarkDirty(w)

	err := p.Tick(func(back *Buffer, refreshed []int) {
		back.Set(0, 0, NewCell("Q", DefaultStyle()))
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(sink.Bytes(), []byte("Q")) {
		t.Error("expected the composed cell to reach the sink")
	}
	if evidence.Len() == 0 {
		t.Error("expected evidence records to be written")
	}
	if trace.Len() == 0 {
		t.Error("expected a render trace record to be written")
	}
}

func TestProgramResizeForcesFullGuard(t *testing.T) {
	var sink, evidence, trace bytes.Buffer
	cfg := ProgramConfig{
		Cols: 5, Rows: 2,
		Profile:   truecolorProfile(),
		Mode:      ModeAltScreen,
		Selector:  DefaultSelectorConfig(),
		Scheduler: DefaultSchedulerConfig(),
	}
	p := NewProgram(cfg, &sink, &evidence, &trace)

	if err := p.Tick(func(back *Buffer, refreshed []int) {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Resize(8, 4)

	if err := p.Tick(func(back *Buffer, refreshed []int) {
		back.Set(0, 0, NewCell("R", DefaultStyle()))
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProgramLogsFairnessConfigOnConstruction(t *testing.T) {
	var sink, evidence, trace bytes.Buffer
	cfg := ProgramConfig{
		Cols: 10, Rows: 3,
		Profile:   truecolorProfile(),
		Mode:      ModeAltScreen,
		Selector:  DefaultSelectorConfig(),
		Scheduler: DefaultSchedulerConfig(),
	}
	NewProgram(cfg, &sink, &evidence, &trace)

	if !strings.Contains(evidence.String(), `"fairness_config"`) {
		t.Errorf("expected a fairness_config record on construction, got %q", evidence.String())
	}
}

func TestProgramTickLogsBOCPD(t *testing.T) {
	var sink, evidence, trace bytes.Buffer
	cfg := ProgramConfig{
		Cols: 10, Rows: 3,
		Profile:   truecolorProfile(),
		Mode:      ModeAltScreen,
		Selector:  DefaultSelectorConfig(),
		Scheduler: DefaultSchedulerConfig(),
	}
	p := NewProgram(cfg, &sink, &evidence, &trace)

	if err := p.Tick(func(back *Buffer, refreshed []int) {
		back.Set(0, 0, NewCell("Q", DefaultStyle()))
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(evidence.String(), `"bocpd"`) {
		t.Errorf("expected a bocpd record when BOCPDEnabled, got %q", evidence.String())
	}
}

func TestProgramTickOmitsBOCPDWhenDisabled(t *testing.T) {
	var sink, evidence, trace bytes.Buffer
	selCfg := DefaultSelectorConfig()
	selCfg.BOCPDEnabled = false
	cfg := ProgramConfig{
		Cols: 10, Rows: 3,
		Profile:   truecolorProfile(),
		Mode:      ModeAltScreen,
		Selector:  selCfg,
		Scheduler: DefaultSchedulerConfig(),
	}
	p := NewProgram(cfg, &sink, &evidence, &trace)

	if err := p.Tick(func(back *Buffer, refreshed []int) {
		back.Set(0, 0, NewCell("Q", DefaultStyle()))
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(evidence.String(), `"bocpd"`) {
		t.Errorf("expected no bocpd record while disabled, got %q", evidence.String())
	}
}

func TestProgramTickLogsBudgetDecisionOnTierChange(t *testing.T) {
	var sink, evidence, trace bytes.Buffer
	cfg := ProgramConfig{
		Cols: 10, Rows: 3,
		Profile:   truecolorProfile(),
		Mode:      ModeAltScreen,
		Selector:  DefaultSelectorConfig(),
		Scheduler: SchedulerConfig{
			FrameBudget:                    16_666 * 1000, // ns; 16.666ms
			RenderBudget:                   8_000 * 1000,
			ConsecutiveOverBudgetToDescend: 1,
			ConsecutiveUnderBudgetToAscend: 30,
			Fairness:                       DefaultFairnessConfig(),
		},
		Deterministic: true,
	}
	p := NewProgram(cfg, &sink, &evidence, &trace)

	clock, ok := p.Clock().(*SteppedClock)
	if !ok {
		t.Fatalf("expected a *SteppedClock in deterministic mode")
	}

	if err := p.Tick(func(back *Buffer, refreshed []int) {
		clock.Step(50 * 1_000_000) // 50ms, well over the frame budget
		back.Set(0, 0, NewCell("Q", DefaultStyle()))
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(evidence.String(), `"budget_decision"`) {
		t.Errorf("expected a budget_decision record on a tier change, got %q", evidence.String())
	}
	if p.scheduler.Tier() != TierReduced {
		t.Errorf("expected the scheduler to have descended to TierReduced, got %v", p.scheduler.Tier())
	}
}

func TestProgramDrawsSafetyStatusFrameAndLogsHUDToggle(t *testing.T) {
	var sink, evidence, trace bytes.Buffer
	cfg := ProgramConfig{
		Cols: 20, Rows: 3,
		Profile:   truecolorProfile(),
		Mode:      ModeAltScreen,
		Selector:  DefaultSelectorConfig(),
		Scheduler: SchedulerConfig{
			FrameBudget:                    16_666 * 1000,
			RenderBudget:                   8_000 * 1000,
			ConsecutiveOverBudgetToDescend: 1,
			ConsecutiveUnderBudgetToAscend: 30,
			Fairness:                       DefaultFairnessConfig(),
		},
		Deterministic: true,
	}
	p := NewProgram(cfg, &sink, &evidence, &trace)
	clock := p.Clock().(*SteppedClock)

	// Three consecutive over-budget ticks: Full -> Reduced -> Minimal -> Safety.
	for i := 0; i < 3; i++ {
		if err := p.Tick(func(back *Buffer, refreshed []int) {
			clock.Step(50 * 1_000_000)
		}); err != nil {
			t.Fatalf("tick %d: unexpected error: %v", i, err)
		}
	}
	if p.scheduler.Tier() != TierSafety {
		t.Fatalf("expected TierSafety after three over-budget ticks, got %v", p.scheduler.Tier())
	}

	// This tick begins in TierSafety, so it should draw the status frame
	// and flip the HUD toggle on.
	sink.Reset()
	if err := p.Tick(func(back *Buffer, refreshed []int) {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(sink.Bytes(), []byte("DEGRADED")) {
		t.Errorf("expected the safety-tier status frame in the presented frame, got %q", sink.String())
	}
	if !strings.Contains(evidence.String(), `"hud_toggle"`) {
		t.Errorf("expected a hud_toggle record when the status frame becomes visible, got %q", evidence.String())
	}
}

func TestProgramArenaCandidatesDeterministicOrder(t *testing.T) {
	a := NewWidgetArena()
	third := a.Register()
	first := a.Register()
	second := a.Register()
	a.MarkDirty(third)
	a.MarkDirty(first)
	a.MarkDirty(second)

	got := a.Candidates()
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("expected ascending candidate order, got %v", got)
		}
	}
}

func TestWidgetArenaClearDirtyDropsOnlyGiven(t *testing.T) {
	a := NewWidgetArena()
	w1, w2 := a.Register(), a.Register()
	a.MarkDirty(w1)
	a.MarkDirty(w2)
	a.ClearDirty([]int{int(w1)})

	got := a.Candidates()
	if len(got) != 1 || got[0] != int(w2) {
		t.Errorf("expected only w2 to remain dirty, got %v", got)
	}
}
