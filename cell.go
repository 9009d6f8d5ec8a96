// Package render implements the FrankenTUI render core: a cell buffer,
// a double-buffered presenter, a diff/strategy selector, an ANSI emitter,
// and a frame scheduler with evidence/trace logging.
package render

import "fmt"

// Attribute is a bitset of text-styling attributes that can be combined.
type Attribute uint8

const (
	AttrNone Attribute = 0
	AttrBold Attribute = 1 << (iota - 1)
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrStrike
	AttrHidden
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// With returns a new attribute set with the given attribute added.
func (a Attribute) With(attr Attribute) Attribute { return a | attr }

// Without returns a new attribute set with the given attribute removed.
func (a Attribute) Without(attr Attribute) Attribute { return a &^ attr }

// ColorMode selects how a Color's value should be interpreted.
type ColorMode uint8

const (
	ColorDefault ColorMode = iota // terminal default fg/bg
	ColorIndexed                  // 0..=255 palette index
	ColorRGB                      // 24-bit true color
)

// Color is a terminal color: default, an indexed palette entry, or RGB.
type Color struct {
	Mode    ColorMode
	R, G, B uint8
	Index   uint8
}

// DefaultColor returns the terminal's default color.
func DefaultColor() Color { return Color{Mode: ColorDefault} }

// Indexed returns a palette color in 0..=255.
func Indexed(i uint8) Color { return Color{Mode: ColorIndexed, Index: i} }

// RGB returns a 24-bit true color.
func RGB(r, g, b uint8) Color { return Color{Mode: ColorRGB, R: r, G: g, B: b} }

// Equal reports whether two colors are identical.
func (c Color) Equal(other Color) bool { return c == other }

// Style combines foreground, background color and attributes.
// Cluster-exact plus style-exact equality is what the Differ uses to
// decide whether a cell has changed.
type Style struct {
	FG   Color
	BG   Color
	Attr Attribute
}

// DefaultStyle returns a style with default colors and no attributes.
func DefaultStyle() Style { return Style{FG: DefaultColor(), BG: DefaultColor()} }

func (s Style) Foreground(c Color) Style { s.FG = c; return s }
func (s Style) Background(c Color) Style { s.BG = c; return s }
func (s Style) Bold() Style               { s.Attr = s.Attr.With(AttrBold); return s }
func (s Style) Dim() Style                { s.Attr = s.Attr.With(AttrDim); return s }
func (s Style) Italic() Style             { s.Attr = s.Attr.With(AttrItalic); return s }
func (s Style) Underline() Style          { s.Attr = s.Attr.With(AttrUnderline); return s }
func (s Style) Blink() Style              { s.Attr = s.Attr.With(AttrBlink); return s }
func (s Style) Reverse() Style            { s.Attr = s.Attr.With(AttrReverse); return s }
func (s Style) Strike() Style             { s.Attr = s.Attr.With(AttrStrike); return s }
func (s Style) Hidden() Style             { s.Attr = s.Attr.With(AttrHidden); return s }

// Equal reports whether two styles are identical.
func (s Style) Equal(other Style) bool { return s == other }

// HyperlinkID interns a URL for OSC 8 hyperlink emission. Zero means "no
// hyperlink". The interning table lives on the Buffer that produced it.
type HyperlinkID uint32

// Cell is the unit of truth for a single grid position. A width-2 cell
// (East-Asian wide, or a multi-rune grapheme cluster that renders wide)
// occupies two adjacent slots; the second is written as a continuation
// sentinel (a Width-0 cell, see IsContinuation) by Buffer.Set and never
// addressed directly.
type Cell struct {
	Ch        string // grapheme cluster; "" only for a continuation sentinel
	Width     uint8  // 1 or 2; 0 marks a continuation sentinel
	FG        Color
	BG        Color
	Attr      Attribute
	Hyperlink HyperlinkID
}

// EmptyCell returns a single-width space cell with default style.
func EmptyCell() Cell {
	return Cell{Ch: " ", Width: 1, FG: DefaultColor(), BG: DefaultColor()}
}

// NewCell creates a single-width cell holding one grapheme cluster.
func NewCell(ch string, style Style) Cell {
	return Cell{Ch: ch, Width: 1, FG: style.FG, BG: style.BG, Attr: style.Attr}
}

// Style extracts the style portion of a cell.
func (c Cell) Style() Style { return Style{FG: c.FG, BG: c.BG, Attr: c.Attr} }

// IsContinuation reports whether this cell is the trailing half of a
// width-2 cell and therefore carries no content of its own.
func (c Cell) IsContinuation() bool { return c.Width == 0 }

// Equal reports cluster-exact plus style-exact equality, per §4.1: the
// basis for all diffing in the Differ.
func (c Cell) Equal(other Cell) bool {
	return c.Ch == other.Ch && c.Width == other.Width &&
		c.FG == other.FG && c.BG == other.BG &&
		c.Attr == other.Attr && c.Hyperlink == other.Hyperlink
}

// CellRangeError reports a programmer error: an out-of-bounds Set, or a
// diff requested between mismatched-dimension buffers. Buffer.Set returns
// it to the caller; the Differ panics on mismatched dimensions instead.
// There is no clamping mode.
type CellRangeError struct {
	X, Y, Cols, Rows int
	Reason           string
}

func (e *CellRangeError) Error() string {
	return fmt.Sprintf("cell range error: %s (x=%d y=%d cols=%d rows=%d)", e.Reason, e.X, e.Y, e.Cols, e.Rows)
}
