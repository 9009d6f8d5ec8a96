package render

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Buffer is a cols×rows, row-major, tightly packed grid of Cells — the
// unit of truth for a single frame (§3). Continuation sentinels (Width==0)
// only ever appear immediately to the right of a width-2 cell; Set is the
// single place that invariant is maintained.
//
// All mutation here is pure over the buffer's own state: no I/O, ever.
type Buffer struct {
	cells []Cell
	cols  int
	rows  int

	links     map[string]HyperlinkID // URL -> interned id
	linkURLs  []string               // id-1 -> URL (0 is "no link")
	dirtyRows []bool
	allDirty  bool
}

// NewBuffer creates a buffer of the given size filled with default cells.
func NewBuffer(cols, rows int) *Buffer {
	b := &Buffer{cols: cols, rows: rows, dirtyRows: make([]bool, rows), allDirty: true}
	b.cells = make([]Cell, cols*rows)
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
	return b
}

// Cols returns the buffer width in columns.
func (b *Buffer) Cols() int { return b.cols }

// Rows returns the buffer height in rows.
func (b *Buffer) Rows() int { return b.rows }

// Size returns (cols, rows).
func (b *Buffer) Size() (cols, rows int) { return b.cols, b.rows }

// InBounds reports whether (x,y) addresses a cell in this buffer.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.cols && y >= 0 && y < b.rows
}

func (b *Buffer) index(x, y int) int { return y*b.cols + x }

// Get returns the cell at (x,y), or an empty cell if out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// Set writes a cell at (x,y). If the cell is width-2, the slot at (x+1,y)
// is overwritten with a continuation sentinel; if x+1 is out of bounds
// this returns a *CellRangeError and the buffer is left unmodified.
func (b *Buffer) Set(x, y int, c Cell) error {
	if !b.InBounds(x, y) {
		return &CellRangeError{X: x, Y: y, Cols: b.cols, Rows: b.rows, Reason: "set out of bounds"}
	}
	if c.Width == 2 && !b.InBounds(x+1, y) {
		return &CellRangeError{X: x + 1, Y: y, Cols: b.cols, Rows: b.rows, Reason: "width-2 cell has no room for continuation"}
	}
	b.cells[b.index(x, y)] = c
	b.markRowDirty(y)
	if c.Width == 2 {
		b.cells[b.index(x+1, y)] = Cell{Width: 0, FG: c.FG, BG: c.BG, Attr: c.Attr, Hyperlink: c.Hyperlink}
	}
	return nil
}

// SetString writes a grapheme cluster at (x,y) with the given style,
// measuring its display width with go-runewidth and deriving Width
// (1 or 2) the same way the cluster's glyph would occupy columns.
func (b *Buffer) SetString(x, y int, cluster string, style Style) error {
	w := runewidth.StringWidth(cluster)
	if w <= 0 {
		w = 1
	}
	if w > 2 {
		w = 2 // a single grapheme cluster never spans more than 2 columns
	}
	return b.Set(x, y, Cell{Ch: cluster, Width: uint8(w), FG: style.FG, BG: style.BG, Attr: style.Attr})
}

// WriteText segments s into grapheme clusters (via uniseg) and writes
// them left to right starting at (x,y), stopping at the buffer edge.
// Returns the number of columns advanced.
func (b *Buffer) WriteText(x, y int, s string, style Style) int {
	start := x
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		w := runewidth.StringWidth(cluster)
		if w <= 0 {
			w = 1
		} else if w > 2 {
			w = 2
		}
		if x+w > b.cols || x < 0 {
			break
		}
		b.Set(x, y, Cell{Ch: cluster, Width: uint8(w), FG: style.FG, BG: style.BG, Attr: style.Attr})
		x += w
	}
	return x - start
}

// Intern returns a stable HyperlinkID for url, allocating one on first
// use. HyperlinkID(0) is reserved to mean "no hyperlink".
func (b *Buffer) Intern(url string) HyperlinkID {
	if url == "" {
		return 0
	}
	if b.links == nil {
		b.links = make(map[string]HyperlinkID)
	}
	if id, ok := b.links[url]; ok {
		return id
	}
	b.linkURLs = append(b.linkURLs, url)
	id := HyperlinkID(len(b.linkURLs))
	b.links[url] = id
	return id
}

// Resolve returns the URL behind a HyperlinkID, or "" for id 0 or an id
// not known to this buffer.
func (b *Buffer) Resolve(id HyperlinkID) string {
	if id == 0 || int(id) > len(b.linkURLs) {
		return ""
	}
	return b.linkURLs[id-1]
}

// Fill overwrites every cell in the buffer with c.
func (b *Buffer) Fill(c Cell) {
	for i := range b.cells {
		b.cells[i] = c
	}
	b.allDirty = true
}

// Rect is an axis-aligned region in buffer coordinates.
type Rect struct{ X, Y, W, H int }

// FillRect overwrites every cell within rect with c, clipped to bounds.
func (b *Buffer) FillRect(rect Rect, c Cell) {
	y0, y1 := max(0, rect.Y), min(b.rows, rect.Y+rect.H)
	x0, x1 := max(0, rect.X), min(b.cols, rect.X+rect.W)
	for y := y0; y < y1; y++ {
		base := y * b.cols
		for x := x0; x < x1; x++ {
			b.cells[base+x] = c
		}
		b.markRowDirty(y)
	}
}

// IterRow calls fn for every cell in row y, left to right. fn returning
// false stops iteration early.
func (b *Buffer) IterRow(y int, fn func(x int, c Cell) bool) {
	if y < 0 || y >= b.rows {
		return
	}
	base := y * b.cols
	for x := 0; x < b.cols; x++ {
		if !fn(x, b.cells[base+x]) {
			return
		}
	}
}

func (b *Buffer) markRowDirty(y int) {
	if y >= 0 && y < len(b.dirtyRows) {
		b.dirtyRows[y] = true
	}
}

// RowDirty reports whether row y has been written to since the last
// ClearDirtyFlags (or the buffer was just created/cleared/resized).
func (b *Buffer) RowDirty(y int) bool {
	if b.allDirty {
		return true
	}
	if y < 0 || y >= len(b.dirtyRows) {
		return false
	}
	return b.dirtyRows[y]
}

// ClearDirtyFlags resets per-row dirty tracking. Call after a frame has
// been diffed and emitted.
func (b *Buffer) ClearDirtyFlags() {
	b.allDirty = false
	for i := range b.dirtyRows {
		b.dirtyRows[i] = false
	}
}

// MarkAllDirty forces every row to be considered dirty on the next diff —
// used after a resize or an external mutation bypassing Set.
func (b *Buffer) MarkAllDirty() { b.allDirty = true }

// Clear resets every cell to the default cell. Per §3, a cleared buffer
// contains the default cell (space, default style) everywhere.
func (b *Buffer) Clear() {
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
	b.allDirty = true
	for i := range b.dirtyRows {
		b.dirtyRows[i] = false
	}
}

// CopyFrom bulk-copies cells from src into b. Requires identical
// dimensions; a no-op otherwise (callers that need resizing semantics
// should go through Resize first).
func (b *Buffer) CopyFrom(src *Buffer) {
	if b.cols != src.cols || b.rows != src.rows {
		return
	}
	copy(b.cells, src.cells)
	b.allDirty = true
}

// Resize replaces the buffer's storage with a new cols×rows grid,
// preserving existing content where it overlaps, per §4.1
// ("resize(cols, rows) (truncate/extend with default)"). The old slice
// is discarded — callers needing the previous-size buffer for one more
// diff must retain it themselves before calling Resize (see DoubleBuffer).
func (b *Buffer) Resize(cols, rows int) {
	if cols == b.cols && rows == b.rows {
		return
	}
	newCells := make([]Cell, cols*rows)
	empty := EmptyCell()
	for i := range newCells {
		newCells[i] = empty
	}
	minCols, minRows := min(cols, b.cols), min(rows, b.rows)
	for y := 0; y < minRows; y++ {
		srcBase, dstBase := y*b.cols, y*cols
		copy(newCells[dstBase:dstBase+minCols], b.cells[srcBase:srcBase+minCols])
	}
	b.cells = newCells
	b.cols, b.rows = cols, rows
	b.dirtyRows = make([]bool, rows)
	b.allDirty = true
}

// String renders the buffer as plain text (debugging/tests only); each
// row is newline-separated, continuation cells render as nothing extra.
func (b *Buffer) String() string {
	out := make([]byte, 0, (b.cols+1)*b.rows)
	for y := 0; y < b.rows; y++ {
		base := y * b.cols
		for x := 0; x < b.cols; x++ {
			c := b.cells[base+x]
			if c.IsContinuation() {
				continue
			}
			if c.Ch == "" {
				out = append(out, ' ')
			} else {
				out = append(out, c.Ch...)
			}
		}
		if y < b.rows-1 {
			out = append(out, '\n')
		}
	}
	return string(out)
}
