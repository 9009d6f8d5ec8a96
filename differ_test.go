package render

import "testing"

func buildBuffer(cols, rows int, set func(b *Buffer)) *Buffer {
	b := NewBuffer(cols, rows)
	if set != nil {
		set(b)
	}
	return b
}

func TestDiffRows(t *testing.T) {
	t.Run("Idempotence", func(t *testing.T) {
		b := buildBuffer(10, 10, func(b *Buffer) { b.Set(3, 3, NewCell("X", DefaultStyle())) })
		out := DiffRows(b, b)
		if len(out.DirtyRows) != 0 {
			t.Errorf("expected no dirty rows diffing a buffer against itself, got %v", out.DirtyRows)
		}
	})

	t.Run("DetectsChangedRows", func(t *testing.T) {
		prev := NewBuffer(10, 5)
		next := NewBuffer(10, 5)
		next.Set(2, 1, NewCell("A", DefaultStyle()))
		next.Set(4, 3, NewCell("B", DefaultStyle()))
		out := DiffRows(prev, next)
		if len(out.DirtyRows) != 2 || out.DirtyRows[0] != 1 || out.DirtyRows[1] != 3 {
			t.Errorf("expected rows [1 3], got %v", out.DirtyRows)
		}
	})

	t.Run("EmptyBuffer", func(t *testing.T) {
		prev := NewBuffer(0, 0)
		next := NewBuffer(0, 0)
		out := DiffRows(prev, next)
		if len(out.DirtyRows) != 0 {
			t.Errorf("expected empty diff for 0x0 buffers, got %v", out.DirtyRows)
		}
	})

	t.Run("MismatchedDimensionsPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic on mismatched dimensions")
			}
		}()
		DiffRows(NewBuffer(5, 5), NewBuffer(6, 5))
	})
}

func TestDiffSpans(t *testing.T) {
	t.Run("SingleContiguousSpan", func(t *testing.T) {
		prev := NewBuffer(20, 1)
		next := NewBuffer(20, 1)
		for x := 5; x < 9; x++ {
			next.Set(x, 0, NewCell("X", DefaultStyle()))
		}
		out := DiffSpansOutput(prev, next, DefaultBreakThreshold)
		if len(out.RowSpans) != 1 || len(out.RowSpans[0].Spans) != 1 {
			t.Fatalf("expected one row with one span, got %+v", out.RowSpans)
		}
		span := out.RowSpans[0].Spans[0]
		if span.Start != 5 || span.End != 9 {
			t.Errorf("expected span [5,9), got %+v", span)
		}
	})

	t.Run("GapBelowThresholdMergesSpans", func(t *testing.T) {
		prev := NewBuffer(20, 1)
		next := NewBuffer(20, 1)
		next.Set(2, 0, NewCell("X", DefaultStyle()))
		next.Set(5, 0, NewCell("Y", DefaultStyle())) // gap of 2 unchanged cells < threshold(4)
		out := DiffSpansOutput(prev, next, DefaultBreakThreshold)
		if len(out.RowSpans[0].Spans) != 1 {
			t.Fatalf("expected the gap to be absorbed into one span, got %+v", out.RowSpans[0].Spans)
		}
	})

	t.Run("GapAtOrAboveThresholdSplitsSpans", func(t *testing.T) {
		prev := NewBuffer(20, 1)
		next := NewBuffer(20, 1)
		next.Set(2, 0, NewCell("X", DefaultStyle()))
		next.Set(7, 0, NewCell("Y", DefaultStyle())) // gap of 4 unchanged cells >= threshold(4)
		out := DiffSpansOutput(prev, next, DefaultBreakThreshold)
		if len(out.RowSpans[0].Spans) != 2 {
			t.Fatalf("expected two separate spans, got %+v", out.RowSpans[0].Spans)
		}
	})

	t.Run("WideCellContinuationStaysAttached", func(t *testing.T) {
		prev := NewBuffer(10, 1)
		next := NewBuffer(10, 1)
		next.Set(3, 0, Cell{Ch: "中", Width: 2, FG: DefaultColor(), BG: DefaultColor()})
		out := DiffSpansOutput(prev, next, DefaultBreakThreshold)
		if len(out.RowSpans) != 1 || len(out.RowSpans[0].Spans) != 1 {
			t.Fatalf("expected one span covering leader+continuation, got %+v", out.RowSpans)
		}
		span := out.RowSpans[0].Spans[0]
		if span.Start != 3 || span.End != 5 {
			t.Errorf("expected span [3,5) covering both cells, got %+v", span)
		}
	})
}

func TestDiffTiles(t *testing.T) {
	t.Run("DefaultTileSize", func(t *testing.T) {
		prev := NewBuffer(32, 8)
		next := NewBuffer(32, 8)
		next.Set(0, 0, NewCell("X", DefaultStyle()))
		out := DiffTilesOutput(prev, next, 0, 0)
		if out.TileW != DefaultTileW || out.TileH != DefaultTileH {
			t.Errorf("expected default tile size, got %dx%d", out.TileW, out.TileH)
		}
		if len(out.DirtyTiles) != 1 || out.DirtyTiles[0] != (TileCoord{0, 0}) {
			t.Errorf("expected single dirty tile (0,0), got %v", out.DirtyTiles)
		}
	})

	t.Run("RegionMarksOnlyCoveringTiles", func(t *testing.T) {
		prev := NewBuffer(64, 16)
		next := NewBuffer(64, 16)
		for y := 4; y < 8; y++ {
			for x := 16; x < 32; x++ {
				next.Set(x, y, NewCell("X", DefaultStyle()))
			}
		}
		out := DiffTilesOutput(prev, next, 16, 4)
		if len(out.DirtyTiles) != 1 {
			t.Fatalf("expected exactly one dirty tile, got %v", out.DirtyTiles)
		}
		if out.DirtyTiles[0] != (TileCoord{TX: 1, TY: 1}) {
			t.Errorf("expected tile (1,1), got %+v", out.DirtyTiles[0])
		}
	})

	t.Run("EmptyBuffer", func(t *testing.T) {
		prev := NewBuffer(0, 0)
		next := NewBuffer(0, 0)
		out := DiffTilesOutput(prev, next, 0, 0)
		if len(out.DirtyTiles) != 0 {
			t.Errorf("expected no dirty tiles for 0x0 buffer, got %v", out.DirtyTiles)
		}
	})
}
