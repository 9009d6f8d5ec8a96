package render

// Strategy is the presentation strategy chosen for a frame.
type Strategy int

const (
	StrategyDirtyRows Strategy = iota
	StrategySpans
	StrategyTiles
	StrategyFull
	StrategyFullRedraw
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirtyRows:
		return "dirty_rows"
	case StrategySpans:
		return "spans"
	case StrategyTiles:
		return "tiles"
	case StrategyFull:
		return "full"
	case StrategyFullRedraw:
		return "full_redraw"
	default:
		return "unknown"
	}
}

// GuardReason explains why hysteresis was bypassed, or "none".
type GuardReason string

const (
	GuardNone       GuardReason = "none"
	GuardBOCPD      GuardReason = "bocpd"
	GuardCapability GuardReason = "capability"
	GuardResize     GuardReason = "resize"
	GuardConformal  GuardReason = "conformal"
)

// Decision is the per-frame record the Strategy Selector emits (§3), every
// field present regardless of which strategy won so the Evidence ledger
// can log a uniform shape.
type Decision struct {
	Strategy Strategy

	CostFull   float64
	CostDirty  float64
	CostSpan   float64
	CostTile   float64
	CostRedraw float64

	PosteriorMean     float64
	PosteriorVariance float64

	HysteresisApplied bool
	GuardReason       GuardReason

	SpanCount       int
	SpanCoveragePct float64

	TileUsed        bool
	DirtyTileRatio  float64

	BayesianEnabled bool
	EventIdx        uint64

	BOCPDRunLengthZeroMass float64
}
