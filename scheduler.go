package render

import "time"

// DegradationTier is the Scheduler's response to sustained over-budget
// frames (§4.7): each step down sheds more work to keep the event loop
// from falling further behind.
type DegradationTier int

const (
	TierFull DegradationTier = iota
	TierReduced
	TierMinimal
	TierSafety
)

func (t DegradationTier) String() string {
	switch t {
	case TierReduced:
		return "reduced"
	case TierMinimal:
		return "minimal"
	case TierSafety:
		return "safety"
	default:
		return "full"
	}
}

// Clock is injected time so the Scheduler can run in deterministic mode
// (§4.7, §9): a real clock in production, a stepper in tests.
type Clock interface {
	NowMono() time.Duration
}

// WallClock is the production Clock, backed by time.Now via a fixed
// epoch captured at construction.
type WallClock struct{ epoch time.Time }

// NewWallClock creates a Clock whose NowMono is elapsed time since
// construction.
func NewWallClock() *WallClock { return &WallClock{epoch: time.Now()} }

// NowMono returns time elapsed since the WallClock was constructed.
func (c *WallClock) NowMono() time.Duration { return time.Since(c.epoch) }

// SteppedClock is the deterministic-mode Clock (§4.7's time_step_ms):
// NowMono only advances when Step is called, never on its own.
type SteppedClock struct{ elapsed time.Duration }

// NewSteppedClock creates a SteppedClock starting at zero.
func NewSteppedClock() *SteppedClock { return &SteppedClock{} }

// NowMono returns the clock's current elapsed time.
func (c *SteppedClock) NowMono() time.Duration { return c.elapsed }

// Step advances the clock by d, simulating a tick boundary.
func (c *SteppedClock) Step(d time.Duration) { c.elapsed += d }

// SchedulerConfig bundles the Scheduler's budgets and degradation
// thresholds (§4.7).
type SchedulerConfig struct {
	FrameBudget  time.Duration
	RenderBudget time.Duration

	// ConsecutiveOverBudgetToDescend is how many frames in a row must
	// exceed FrameBudget before the Scheduler descends one tier.
	ConsecutiveOverBudgetToDescend int
	// ConsecutiveUnderBudgetToAscend is the symmetric recovery threshold.
	ConsecutiveUnderBudgetToAscend int

	Fairness FairnessConfig
}

// DefaultSchedulerConfig returns the spec's Full-tier defaults (~60 FPS
// frame budget, a render budget comfortably under it).
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		FrameBudget:                    16_666 * time.Microsecond, // ~60 FPS
		RenderBudget:                   8_000 * time.Microsecond,
		ConsecutiveOverBudgetToDescend: 5,
		ConsecutiveUnderBudgetToAscend: 30,
		Fairness:                       DefaultFairnessConfig(),
	}
}

// ScheduleTick is the per-tick accounting record (§3).
type ScheduleTick struct {
	NowMono        time.Duration
	BudgetFrameUs  int64
	BudgetRenderUs int64
	WidgetQuota    int
	SkippedCount   int
	Tier           DegradationTier
}

// WidgetRefreshEvidence is the evidence record a Scheduler tick emits
// for the Evidence ledger's widget_refresh stream.
type WidgetRefreshEvidence struct {
	Tick      ScheduleTick
	Refreshed []int
	Skipped   []int
	JainIndex float64
}

// Scheduler owns per-tick budget accounting, the widget-refresh quota,
// and the degradation-tier state machine (§4.7). Budget timing fields
// live on the instance (not package-level globals, unlike the teacher's
// DebugTiming/lastBuildTime/lastRenderTime/lastFlushTime vars) so
// multiple Programs never share mutable timing state.
type Scheduler struct {
	cfg   SchedulerConfig
	clock Clock

	tier              DegradationTier
	consecutiveOver   int
	consecutiveUnder  int

	fairness *WidgetFairness

	lastBuildTime  time.Duration
	lastDiffTime   time.Duration
	lastEmitTime   time.Duration
	lastFlushTime  time.Duration
}

// NewScheduler creates a Scheduler with the given config and clock (pass
// a *SteppedClock for deterministic/replayable runs, a *WallClock
// otherwise).
func NewScheduler(cfg SchedulerConfig, clock Clock) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		clock:    clock,
		fairness: NewWidgetFairness(cfg.Fairness),
	}
}

// Tier returns the current degradation tier.
func (s *Scheduler) Tier() DegradationTier { return s.tier }

// WidgetCapacityForTier returns how many of candidateCount widgets may
// refresh this tick at the current tier: all of them at Full, a
// progressively smaller slice at each lower tier, and exactly one
// (the status frame) at Safety.
func (s *Scheduler) WidgetCapacityForTier(candidateCount int) int {
	switch s.tier {
	case TierReduced:
		return max(1, candidateCount*3/4)
	case TierMinimal:
		return max(1, candidateCount/2)
	case TierSafety:
		return 1
	default:
		return candidateCount
	}
}

// RecordFrameDuration feeds the wall-clock time the last full tick
// (update+diff+emit+present) took, driving the degradation-tier state
// machine: ConsecutiveOverBudgetToDescend over-budget frames in a row
// step down one tier; ConsecutiveUnderBudgetToAscend frames in a row at
// or under the budget step back up one tier.
func (s *Scheduler) RecordFrameDuration(d time.Duration) {
	if d > s.cfg.FrameBudget {
		s.consecutiveOver++
		s.consecutiveUnder = 0
		if s.consecutiveOver >= s.cfg.ConsecutiveOverBudgetToDescend && s.tier < TierSafety {
			s.tier++
			s.consecutiveOver = 0
		}
		return
	}
	s.consecutiveUnder++
	s.consecutiveOver = 0
	if s.consecutiveUnder >= s.cfg.ConsecutiveUnderBudgetToAscend && s.tier > TierFull {
		s.tier--
		s.consecutiveUnder = 0
	}
}

// RecordTimings stores this tick's component timings for diagnostics
// (mirrors the teacher's TimingString/GetTimings, but per-instance).
func (s *Scheduler) RecordTimings(build, diff, emit, flush time.Duration) {
	s.lastBuildTime = build
	s.lastDiffTime = diff
	s.lastEmitTime = emit
	s.lastFlushTime = flush
}

// Timings returns the most recently recorded per-stage durations.
func (s *Scheduler) Timings() (build, diff, emit, flush time.Duration) {
	return s.lastBuildTime, s.lastDiffTime, s.lastEmitTime, s.lastFlushTime
}

// Tick runs the widget-shedding decision for one frame against
// candidates (all widgets with pending work) and returns the evidence
// record the Evidence ledger should log as widget_refresh.
func (s *Scheduler) Tick(candidates []int) WidgetRefreshEvidence {
	capacity := s.WidgetCapacityForTier(len(candidates))
	decision := s.fairness.Decide(candidates, capacity)

	return WidgetRefreshEvidence{
		Tick: ScheduleTick{
			NowMono:        s.clock.NowMono(),
			BudgetFrameUs:  s.cfg.FrameBudget.Microseconds(),
			BudgetRenderUs: s.cfg.RenderBudget.Microseconds(),
			WidgetQuota:    capacity,
			SkippedCount:   len(decision.Skipped),
			Tier:           s.tier,
		},
		Refreshed: decision.Refreshed,
		Skipped:   decision.Skipped,
		JainIndex: decision.JainIndex,
	}
}
