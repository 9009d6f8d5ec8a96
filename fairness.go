package render

// FairnessConfig is the per-tick weighting policy for widget refresh
// shedding, recorded as the fairness_config evidence record.
type FairnessConfig struct {
	Floor        float64 // minimum acceptable Jain's fairness index
	MaxSkips     int     // per-widget cap on consecutive skips
	WidgetWeight map[int]float64
}

// DefaultFairnessConfig returns the spec default: floor 0.7.
func DefaultFairnessConfig() FairnessConfig {
	return FairnessConfig{Floor: 0.7, MaxSkips: 3}
}

// FairnessDecision is the per-tick fairness_decision evidence record.
type FairnessDecision struct {
	JainIndex float64
	Refreshed []int // widget ids granted a refresh this tick
	Skipped   []int // widget ids shed this tick
}

// JainFairnessIndex computes Jain's fairness index over a set of
// per-widget allocations (e.g. refreshes received over a trailing
// window): (sum x_i)^2 / (n * sum x_i^2), in [1/n, 1], 1 meaning perfectly
// equal allocation. An empty input reports 1 (vacuously fair).
func JainFairnessIndex(allocations []float64) float64 {
	n := len(allocations)
	if n == 0 {
		return 1
	}
	var sum, sumSq float64
	for _, x := range allocations {
		sum += x
		sumSq += x * x
	}
	if sumSq == 0 {
		return 1
	}
	return (sum * sum) / (float64(n) * sumSq)
}

// WidgetFairness tracks consecutive-skip counts per widget id and decides
// which widgets to shed when the Scheduler must reduce the refresh set,
// keeping Jain's fairness index above the configured floor by refusing
// to skip a widget past MaxSkips regardless of cost.
type WidgetFairness struct {
	cfg             FairnessConfig
	consecutiveSkip map[int]int
	totalRefreshes  map[int]float64
}

// NewWidgetFairness creates a tracker with the given configuration.
func NewWidgetFairness(cfg FairnessConfig) *WidgetFairness {
	return &WidgetFairness{
		cfg:             cfg,
		consecutiveSkip: make(map[int]int),
		totalRefreshes:  make(map[int]float64),
	}
}

// Decide partitions candidate widget ids into refreshed/skipped given a
// budget of `capacity` refreshes this tick. Widgets at the MaxSkips cap
// are always refreshed first, even when they alone exceed capacity; any
// remaining capacity is then filled in candidate order (the Selector/host
// is expected to have already sorted candidates by priority if one
// applies).
func (wf *WidgetFairness) Decide(candidates []int, capacity int) FairnessDecision {
	var forced, rest []int
	for _, id := range candidates {
		if wf.consecutiveSkip[id] >= wf.cfg.MaxSkips {
			forced = append(forced, id)
		} else {
			rest = append(rest, id)
		}
	}

	refreshed := make([]int, 0, capacity)
	refreshed = append(refreshed, forced...)
	remaining := capacity - len(refreshed)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > len(rest) {
		remaining = len(rest)
	}
	refreshed = append(refreshed, rest[:remaining]...)
	skipped := rest[remaining:]

	refreshSet := make(map[int]bool, len(refreshed))
	for _, id := range refreshed {
		refreshSet[id] = true
		wf.consecutiveSkip[id] = 0
		wf.totalRefreshes[id]++
	}
	for _, id := range skipped {
		wf.consecutiveSkip[id]++
		if _, ok := wf.totalRefreshes[id]; !ok {
			wf.totalRefreshes[id] = 0
		}
	}

	allocations := make([]float64, 0, len(wf.totalRefreshes))
	for _, v := range wf.totalRefreshes {
		allocations = append(allocations, v)
	}

	return FairnessDecision{
		JainIndex: JainFairnessIndex(allocations),
		Refreshed: refreshed,
		Skipped:   skipped,
	}
}
