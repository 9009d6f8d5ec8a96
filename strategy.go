package render

// CostEstimator tracks an online Beta(alpha,beta) belief over the average
// bytes emitted per changed cell, updated from each frame's observed
// emission size. The Selector's cost formulas (§4.4) all scale a cell
// count by this running average.
type CostEstimator struct {
	alpha, beta float64 // Beta shape params over a normalized [0,1] byte-cost signal
	scale       float64 // maps the normalized signal back to bytes/cell
	mean        float64
	variance    float64
}

// NewCostEstimator creates an estimator seeded with a prior mean bytes/cell
// and a scale factor normalizing observed byte costs into [0,1] for the
// Beta update (scale should be an upper bound on plausible bytes/cell).
func NewCostEstimator(priorMeanBytesPerCell, scale float64) *CostEstimator {
	if scale <= 0 {
		scale = 32
	}
	norm := priorMeanBytesPerCell / scale
	if norm <= 0 {
		norm = 0.01
	}
	if norm >= 1 {
		norm = 0.99
	}
	// Choose a modest pseudo-count so early observations move the mean quickly.
	const pseudoCount = 4.0
	e := &CostEstimator{alpha: norm * pseudoCount, beta: (1 - norm) * pseudoCount, scale: scale}
	e.recompute()
	return e
}

// Update folds in one frame's observation: bytesWritten emitted for
// cellsChanged changed cells.
func (e *CostEstimator) Update(bytesWritten int, cellsChanged int) {
	if cellsChanged <= 0 {
		return
	}
	observed := float64(bytesWritten) / float64(cellsChanged)
	norm := observed / e.scale
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	e.alpha += norm
	e.beta += 1 - norm
	e.recompute()
}

func (e *CostEstimator) recompute() {
	total := e.alpha + e.beta
	e.mean = (e.alpha / total) * e.scale
	e.variance = (e.alpha * e.beta) / (total * total * (total + 1)) * e.scale * e.scale
}

// MeanBytesPerCell returns the current posterior mean bytes/cell estimate.
func (e *CostEstimator) MeanBytesPerCell() float64 { return e.mean }

// Variance returns the current posterior variance.
func (e *CostEstimator) Variance() float64 { return e.variance }

// SelectorConfig bundles the tunables §4.4 and §9 call out explicitly.
type SelectorConfig struct {
	BreakThreshold int // diff_spans run-length that closes a span
	TileW, TileH   int

	CursorMoveOverheadBytes int // bytes to reposition the cursor once
	SGRTransitionBytes      int // bytes for one SGR attribute change
	ClearScreenBytes        int // extra bytes cost_redraw adds over cost_full

	HysteresisFraction float64 // H = HysteresisFraction * cost_full
	BayesianEnabled    bool    // false freezes the cost estimator at its prior

	BOCPDEnabled      bool // false disables the change-point guard entirely
	BOCPDLambda       float64
	BOCPDAlpha0       float64
	BOCPDBeta0        float64
	ConformalEnabled  bool // false disables the anomaly-guard forced-full path
	ConformalWindow   int
	ConformalQuantile float64
	ConformalSlack    float64
}

// DefaultSelectorConfig returns the spec's defaults.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		BreakThreshold:          DefaultBreakThreshold,
		TileW:                   DefaultTileW,
		TileH:                   DefaultTileH,
		CursorMoveOverheadBytes: 6,
		SGRTransitionBytes:      8,
		ClearScreenBytes:        4,
		HysteresisFraction:      0.10,
		BayesianEnabled:         true,
		BOCPDEnabled:            true,
		BOCPDLambda:             250,
		BOCPDAlpha0:             1,
		BOCPDBeta0:              1,
		ConformalEnabled:        true,
		ConformalWindow:         64,
		ConformalQuantile:       0.95,
		ConformalSlack:          256,
	}
}

// Selector implements the Strategy Selector (C4): a cost model over the
// Differ's candidate outputs, picked with a deterministic tie-break,
// stabilized with hysteresis, and overridden by BOCPD/conformal guards.
type Selector struct {
	cfg SelectorConfig

	cost *CostEstimator
	bocpd      *BOCPDDetector
	conformal  *ConformalGuard

	incumbent        Strategy
	incumbentHasRun  bool
	eventIdx         uint64
	forceNextGuard   GuardReason
}

// NewSelector creates a Selector with the given configuration and a
// starting prior mean bytes/cell (a reasonable default is ~6, one SGR-free
// UTF-8 byte plus typical cursor-move amortization).
func NewSelector(cfg SelectorConfig, priorMeanBytesPerCell float64) *Selector {
	return &Selector{
		cfg:       cfg,
		cost:      NewCostEstimator(priorMeanBytesPerCell, 64),
		bocpd:     NewBOCPDDetector(cfg.BOCPDLambda, cfg.BOCPDAlpha0, cfg.BOCPDBeta0),
		conformal: NewConformalGuard(cfg.ConformalWindow, cfg.ConformalQuantile, cfg.ConformalSlack),
		incumbent: StrategyFull,
	}
}

// ForceGuard schedules the next Select call to bypass hysteresis for the
// given reason (capability loss or resize are both detected externally
// by the host/Program, not by the Selector itself).
func (s *Selector) ForceGuard(reason GuardReason) {
	s.forceNextGuard = reason
}

// Select runs the full diff_rows/diff_spans/diff_tiles cost comparison
// between prev and next and returns the Decision plus the DiffOutput the
// caller should actually hand to the Emitter for the winning strategy.
func (s *Selector) Select(prev, next *Buffer) (Decision, DiffOutput) {
	cols, rows := next.Cols(), next.Rows()
	meanBytes := s.cost.MeanBytesPerCell()

	rowsOut := DiffRows(prev, next)
	spansOut := DiffSpansOutput(prev, next, s.cfg.BreakThreshold)
	tilesOut := DiffTilesOutput(prev, next, s.cfg.TileW, s.cfg.TileH)

	costFull := float64(cols*rows) * meanBytes
	costRedraw := costFull + float64(s.cfg.ClearScreenBytes)

	costDirty := float64(len(rowsOut.DirtyRows)*cols)*meanBytes + float64(s.cfg.CursorMoveOverheadBytes)

	costSpan := 0.0
	spanCount := 0
	spanCells := 0
	for _, rs := range spansOut.RowSpans {
		for _, sp := range rs.Spans {
			spanLen := sp.End - sp.Start
			costSpan += float64(spanLen)*meanBytes + float64(s.cfg.SGRTransitionBytes) + float64(s.cfg.CursorMoveOverheadBytes)
			spanCount++
			spanCells += spanLen
		}
	}

	costTile := float64(len(tilesOut.DirtyTiles)*s.cfg.TileW*s.cfg.TileH)*meanBytes + float64(s.cfg.CursorMoveOverheadBytes)*float64(len(tilesOut.DirtyTiles))

	dirtyTileRatio := 0.0
	totalTiles := ((cols + s.cfg.TileW - 1) / max(s.cfg.TileW, 1)) * ((rows + s.cfg.TileH - 1) / max(s.cfg.TileH, 1))
	if totalTiles > 0 {
		dirtyTileRatio = float64(len(tilesOut.DirtyTiles)) / float64(totalTiles)
	}

	totalCells := cols * rows
	spanCoveragePct := 0.0
	if totalCells > 0 {
		spanCoveragePct = float64(spanCells) / float64(totalCells) * 100
	}

	dirtyCellCount := countDirtyCells(prev, next)

	bocpdFired := false
	bocpdMass := 0.0
	if s.cfg.BOCPDEnabled {
		bocpdMass = s.bocpd.Observe(dirtyCellCount)
		bocpdFired = s.bocpd.ChangePointDetected()
	}

	winner, winnerCost := pickMinimum(costDirty, costSpan, costTile, costFull, costRedraw)

	guard := GuardNone
	hysteresisApplied := false
	final := winner

	switch {
	case s.forceNextGuard != "":
		guard = s.forceNextGuard
		s.forceNextGuard = ""
		final = StrategyFull
	case bocpdFired:
		guard = GuardBOCPD
		final = winner
	case s.cfg.ConformalEnabled && s.conformal.ShouldForceFull():
		guard = GuardConformal
		s.conformal.Consume()
		final = StrategyFull
	default:
		if s.incumbentHasRun && s.incumbent != winner {
			incumbentCost := costOf(s.incumbent, costDirty, costSpan, costTile, costFull, costRedraw)
			margin := s.cfg.HysteresisFraction * costFull
			if incumbentCost-winnerCost <= margin {
				final = s.incumbent
				hysteresisApplied = true
			}
		}
	}

	s.incumbent = final
	s.incumbentHasRun = true
	s.eventIdx++

	decision := Decision{
		Strategy:          final,
		CostFull:          costFull,
		CostDirty:         costDirty,
		CostSpan:          costSpan,
		CostTile:          costTile,
		CostRedraw:        costRedraw,
		PosteriorMean:     meanBytes,
		PosteriorVariance: s.cost.Variance(),
		HysteresisApplied: hysteresisApplied,
		GuardReason:       guard,
		SpanCount:         spanCount,
		SpanCoveragePct:   spanCoveragePct,
		TileUsed:          final == StrategyTiles,
		DirtyTileRatio:    dirtyTileRatio,
		BayesianEnabled:   s.cfg.BayesianEnabled,
		EventIdx:          s.eventIdx,

		BOCPDRunLengthZeroMass: bocpdMass,
	}

	switch final {
	case StrategyDirtyRows:
		return decision, rowsOut
	case StrategySpans:
		return decision, spansOut
	case StrategyTiles:
		return decision, tilesOut
	default:
		return decision, DiffFullOutput(next)
	}
}

// ObserveEmission feeds back the realized byte cost of the frame the
// Selector just chose, updating the cost estimator and conformal guard.
// BayesianEnabled=false freezes the cost estimator at its prior instead of
// letting it drift with observations; ConformalEnabled=false stops feeding
// the anomaly guard's window (it never fires with an empty window).
func (s *Selector) ObserveEmission(bytesWritten, cellsChanged int) {
	if s.cfg.BayesianEnabled {
		s.cost.Update(bytesWritten, cellsChanged)
	}
	if s.cfg.ConformalEnabled {
		s.conformal.Observe(bytesWritten)
	}
}

func countDirtyCells(prev, next *Buffer) int {
	count := 0
	for y := 0; y < next.rows; y++ {
		base := y * next.cols
		for x := 0; x < next.cols; x++ {
			if !prev.cells[base+x].Equal(next.cells[base+x]) {
				count++
			}
		}
	}
	return count
}

// pickMinimum implements the deterministic tie-break order DirtyRows <
// Spans < Tiles < Full < FullRedraw (§4.4): ties resolve to the earlier
// strategy in that list.
func pickMinimum(dirty, span, tile, full, redraw float64) (Strategy, float64) {
	best := StrategyDirtyRows
	bestCost := dirty
	if span < bestCost {
		best, bestCost = StrategySpans, span
	}
	if tile < bestCost {
		best, bestCost = StrategyTiles, tile
	}
	if full < bestCost {
		best, bestCost = StrategyFull, full
	}
	if redraw < bestCost {
		best, bestCost = StrategyFullRedraw, redraw
	}
	return best, bestCost
}

func costOf(s Strategy, dirty, span, tile, full, redraw float64) float64 {
	switch s {
	case StrategyDirtyRows:
		return dirty
	case StrategySpans:
		return span
	case StrategyTiles:
		return tile
	case StrategyFullRedraw:
		return redraw
	default:
		return full
	}
}
