package render

import (
	"fmt"
	"io"
)

// WidgetID addresses a widget by a stable integer id rather than a
// pointer/reference, per §9 ("Widgets are addressed by stable integer ids
// (arena + index) rather than holding references to each other"). Full
// widget-tree layout is out of scope for the render core; Program only
// needs enough of an arena to track which ids have pending work.
type WidgetID int

// WidgetArena hands out stable WidgetIDs and tracks which ones currently
// have a pending refresh.
type WidgetArena struct {
	next  WidgetID
	dirty map[WidgetID]bool
}

// NewWidgetArena creates an empty arena.
func NewWidgetArena() *WidgetArena {
	return &WidgetArena{dirty: make(map[WidgetID]bool)}
}

// Register allocates a new stable WidgetID.
func (a *WidgetArena) Register() WidgetID {
	a.next++
	return a.next
}

// MarkDirty flags id as having pending work this tick.
func (a *WidgetArena) MarkDirty(id WidgetID) { a.dirty[id] = true }

// Candidates returns every currently-dirty widget id, in ascending id
// order (deterministic, matching the Selector's own tie-break
// discipline).
func (a *WidgetArena) Candidates() []int {
	ids := make([]int, 0, len(a.dirty))
	for id, d := range a.dirty {
		if d {
			ids = append(ids, int(id))
		}
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// ClearDirty resets the dirty flag for every id in ids (the ones the
// Scheduler actually granted a refresh to this tick).
func (a *WidgetArena) ClearDirty(ids []int) {
	for _, id := range ids {
		delete(a.dirty, WidgetID(id))
	}
}

// ProgramConfig bundles everything Program needs to construct its owned
// components.
type ProgramConfig struct {
	Cols, Rows    int
	Profile       CapabilityProfile
	Mode          PresenterMode
	UIHeight      int
	Selector      SelectorConfig
	Scheduler     SchedulerConfig
	Seed          int64
	Deterministic bool
}

// Program is the root owner named in §9: it holds the DoubleBuffer,
// Scheduler, Selector, Presenter, and Evidence ledger with no
// back-references between them — lifetimes form a tree rooted here.
type Program struct {
	double    *DoubleBuffer
	scheduler *Scheduler
	selector  *Selector
	presenter *Presenter
	evidence  *EvidenceLedger
	arena     *WidgetArena
	clock     Clock

	hashKey       string
	pen           Style
	bocpdEnabled  bool
	theme         Theme
	statusVisible bool
}

// NewProgram wires up one Program instance from cfg, writing frames to
// sink and evidence/trace JSONL to evidenceW/traceW.
func NewProgram(cfg ProgramConfig, sink, evidenceW, traceW io.Writer) *Program {
	var clock Clock
	if cfg.Deterministic {
		clock = NewSteppedClock()
	} else {
		clock = NewWallClock()
	}

	mode := "alt"
	if cfg.Mode == ModeInline {
		mode = "inline"
	}

	p := &Program{
		double:       NewDoubleBuffer(cfg.Cols, cfg.Rows),
		scheduler:    NewScheduler(cfg.Scheduler, clock),
		selector:     NewSelector(cfg.Selector, 6),
		presenter:    NewPresenter(sink, cfg.Profile, cfg.Mode, cfg.UIHeight),
		evidence:     NewEvidenceLedger(evidenceW, traceW, cfg.Seed, nil),
		arena:        NewWidgetArena(),
		clock:        clock,
		hashKey:      HashKey(mode, cfg.Cols, cfg.Rows, cfg.Seed),
		pen:          DefaultStyle(),
		bocpdEnabled: cfg.Selector.BOCPDEnabled,
		theme:        ThemeDark.ForProfile(cfg.Profile),
	}
	// Best-effort: the active fairness policy is logged once at startup,
	// not re-asserted every tick, so a sink failure here isn't fatal to
	// construction.
	_ = p.evidence.LogFairnessConfig(cfg.Scheduler.Fairness)
	return p
}

// Arena exposes the widget id arena so a host can register widgets and
// mark them dirty ahead of a Tick.
func (p *Program) Arena() *WidgetArena { return p.arena }

// Clock exposes the Program's time source; in deterministic mode this is
// a *SteppedClock a test or replay harness can advance explicitly.
func (p *Program) Clock() Clock { return p.clock }

// Start enters the Presenter's lifecycle framing (alt-screen or inline
// anchor) and raw mode.
func (p *Program) Start() error { return p.presenter.Start() }

// Stop runs the Presenter's best-effort cleanup sequence.
func (p *Program) Stop() error { return p.presenter.Stop() }

// Tick runs one full cycle: schedule -> compose (via the supplied
// composeFn, which draws into the DoubleBuffer's back buffer) -> diff ->
// select -> emit -> present -> record evidence -> swap, then the tier
// update (and its budget_decision record). Mirrors the data flow of §2 in
// one method.
func (p *Program) Tick(composeFn func(back *Buffer, refreshed []int)) error {
	tickStart := p.clock.NowMono()
	tier := p.scheduler.Tier()

	candidates := p.arena.Candidates()
	refreshEv := p.scheduler.Tick(candidates)
	p.arena.ClearDirty(refreshEv.Refreshed)

	// Front and BackMut cannot be held concurrently (§4.2's borrow rule),
	// so each is borrowed just long enough to obtain its *Buffer pointer
	// and released immediately; the pointer itself stays valid and
	// identity-stable across the release (a DoubleBuffer swap only flips
	// which pointer plays which role, it never reallocates), so the
	// Differ/Selector can still read both concurrently afterward.
	back, err := p.double.BackMut()
	if err != nil {
		return fmt.Errorf("render: tick: %w", err)
	}
	buildStart := p.clock.NowMono()
	composeFn(back, refreshEv.Refreshed)
	buildTime := p.clock.NowMono() - buildStart

	safetyActive := tier == TierSafety
	if safetyActive {
		DrawStatusFrame(back, p.theme, tier)
	}
	hudChanged := safetyActive != p.statusVisible
	p.statusVisible = safetyActive

	p.double.ReleaseBack()

	front, err := p.double.Front()
	if err != nil {
		return fmt.Errorf("render: tick: %w", err)
	}
	p.double.ReleaseFront()

	diffStart := p.clock.NowMono()
	decision, out := p.selector.Select(front, back)
	diffTime := p.clock.NowMono() - diffStart

	emitStart := p.clock.NowMono()
	n, checksum, err := p.presenter.PresentUI(back, out, decision.GuardReason == GuardResize)
	emitTime := p.clock.NowMono() - emitStart

	p.selector.ObserveEmission(n, max(1, dirtyCellEstimate(decision, back)))

	p.scheduler.RecordTimings(buildTime, diffTime, emitTime, 0)

	if logErr := p.evidence.LogDiffDecision(p.hashKey, decision); logErr != nil && err == nil {
		err = logErr
	}
	// decision_ref is the event_idx of the diff_decision record just
	// written, the key ReadDiffDecisions indexes by.
	if logErr := p.evidence.LogRenderTrace(decision.Strategy, n, checksum, p.evidence.eventIdx); logErr != nil && err == nil {
		err = logErr
	}
	if logErr := p.evidence.LogWidgetRefresh(refreshEv); logErr != nil && err == nil {
		err = logErr
	}
	if logErr := p.evidence.LogFairnessDecision(FairnessDecision{JainIndex: refreshEv.JainIndex, Refreshed: refreshEv.Refreshed, Skipped: refreshEv.Skipped}); logErr != nil && err == nil {
		err = logErr
	}
	if p.bocpdEnabled {
		if logErr := p.evidence.LogBOCPD(decision.BOCPDRunLengthZeroMass, decision.GuardReason == GuardBOCPD); logErr != nil && err == nil {
			err = logErr
		}
	}
	if hudChanged {
		if logErr := p.evidence.LogHUDToggle(safetyActive); logErr != nil && err == nil {
			err = logErr
		}
	}

	if swapErr := p.double.Swap(); swapErr != nil && err == nil {
		err = swapErr
	}

	p.scheduler.RecordFrameDuration(p.clock.NowMono() - tickStart)
	if tierAfter := p.scheduler.Tier(); tierAfter != tier {
		tick := refreshEv.Tick
		tick.Tier = tierAfter
		if logErr := p.evidence.LogBudgetDecision(tick); logErr != nil && err == nil {
			err = logErr
		}
	}
	return err
}

func dirtyCellEstimate(d Decision, buf *Buffer) int {
	switch d.Strategy {
	case StrategyFull, StrategyFullRedraw:
		return buf.Cols() * buf.Rows()
	case StrategyTiles:
		return int(d.DirtyTileRatio * float64(buf.Cols()*buf.Rows()))
	default:
		return int(d.SpanCoveragePct / 100 * float64(buf.Cols()*buf.Rows()))
	}
}

// WriteLog passes a log line through to the Presenter, serialized against
// frame presentation.
func (p *Program) WriteLog(text string) error { return p.presenter.WriteLog(text) }

// Resize replaces the DoubleBuffer's storage and forces the next frame to
// a full repaint via a resize guard, per §4.2/§4.4.
func (p *Program) Resize(cols, rows int) {
	p.double.Resize(cols, rows)
	p.selector.ForceGuard(GuardResize)
}
