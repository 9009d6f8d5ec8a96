package render

// EmitOptions carries the framing choices that depend on presentation
// mode rather than on the diff itself (§4.5): whether to wrap the frame
// in synchronized-output brackets and whether a scroll region is active.
// Emit ignores both whenever CapabilityProfile.Mux != none, and each also
// needs the matching profile capability.
type EmitOptions struct {
	SyncOutput   bool
	ScrollRegion bool
	ScrollTop    int // 1-indexed, inclusive; only used if ScrollRegion
	ScrollBottom int
}

// Emitter converts a chosen strategy's DiffOutput into a deterministic
// ANSI byte stream. It carries no state of its own: Emit is a pure
// function of its arguments, the same (slice, Decision, profile, pen)
// always producing the same bytes — the basis for golden-trace testing
// (§4.5).
type Emitter struct{}

// Emit renders out against next (the buffer out was computed for) using
// profile's capabilities, starting from pen (the last style written to
// the terminal). It returns the byte stream and the pen state after
// writing it, so the caller can thread pen across frames.
func (Emitter) Emit(next *Buffer, out DiffOutput, profile CapabilityProfile, pen Style, opts EmitOptions) ([]byte, Style) {
	var w ansiWriter
	w.profile = profile
	w.pen = pen
	w.penSet = true
	w.lastHyperlink = 0

	useSync := opts.SyncOutput && profile.SyncOutput && profile.Mux == MuxNone
	useScroll := opts.ScrollRegion && profile.ScrollRegion && profile.Mux == MuxNone

	if useSync {
		w.writeStr("\x1b[?2026h")
	}
	if useScroll && opts.ScrollTop > 0 && opts.ScrollBottom > opts.ScrollTop {
		w.writeStr("\x1b[")
		w.writeInt(opts.ScrollTop)
		w.buf = append(w.buf, ';')
		w.writeInt(opts.ScrollBottom)
		w.buf = append(w.buf, 'r')
	}

	switch out.Kind {
	case DiffFull:
		w.emitFull(next)
	case DiffDirtyRows:
		w.emitRows(next, out.DirtyRows)
	case DiffSpans:
		w.emitSpans(next, out.RowSpans)
	case DiffTiles:
		w.emitTiles(next, out.DirtyTiles, out.TileW, out.TileH)
	}

	if w.lastHyperlink != 0 {
		w.writeStr("\x1b]8;;\x07")
		w.lastHyperlink = 0
	}
	if w.penSet && !w.pen.Equal(DefaultStyle()) {
		w.writeStr("\x1b[0m")
		w.pen = DefaultStyle()
	}

	if useSync {
		w.writeStr("\x1b[?2026l")
	}

	return w.buf, w.pen
}

// ansiWriter accumulates bytes with an allocation-free integer writer,
// tracking the current pen (for SGR minimization) and the open
// hyperlink id (for OSC 8 open/close bracketing), the way screen.go's
// Flush/writeCell/writeStyle/writeColor/writeIntToBuf did for the
// teacher's simpler single-profile model.
type ansiWriter struct {
	buf           []byte
	profile       CapabilityProfile
	pen           Style
	penSet        bool
	lastHyperlink HyperlinkID
	cursorX       int
	cursorY       int
	cursorSet     bool
}

func (w *ansiWriter) writeStr(s string) { w.buf = append(w.buf, s...) }

func (w *ansiWriter) writeInt(n int) {
	if n == 0 {
		w.buf = append(w.buf, '0')
		return
	}
	if n < 0 {
		w.buf = append(w.buf, '-')
		n = -n
	}
	var scratch [10]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	w.buf = append(w.buf, scratch[i:]...)
}

// moveTo emits CUP only if the cursor isn't already positioned here —
// never relying on the terminal's autowrap to have advanced it correctly.
func (w *ansiWriter) moveTo(x, y int) {
	if w.cursorSet && w.cursorX == x && w.cursorY == y {
		return
	}
	w.writeStr("\x1b[")
	w.writeInt(y + 1)
	w.buf = append(w.buf, ';')
	w.writeInt(x + 1)
	w.buf = append(w.buf, 'H')
	w.cursorX, w.cursorY, w.cursorSet = x, y, true
}

func (w *ansiWriter) advanceCursor(width int) {
	if width <= 0 {
		width = 1
	}
	w.cursorX += width
}

// writeCell emits one cell's SGR transition (if the pen changed),
// hyperlink open/close (if the hyperlink id changed), and the grapheme
// cluster itself.
func (w *ansiWriter) writeCell(buf *Buffer, c Cell) {
	if c.Hyperlink != w.lastHyperlink {
		if w.lastHyperlink != 0 {
			w.writeStr("\x1b]8;;\x07")
		}
		if c.Hyperlink != 0 {
			url := buf.Resolve(c.Hyperlink)
			w.writeStr("\x1b]8;;")
			w.writeStr(url)
			w.writeStr("\x07")
		}
		w.lastHyperlink = c.Hyperlink
	}

	style := c.Style()
	if !w.penSet || !style.Equal(w.pen) {
		w.writeStyle(style)
		w.pen = style
		w.penSet = true
	}

	if c.Ch == "" {
		w.buf = append(w.buf, ' ')
	} else {
		w.writeStr(c.Ch)
	}
}

func (w *ansiWriter) writeStyle(s Style) {
	w.writeStr("\x1b[0")
	if s.Attr.Has(AttrBold) {
		w.writeStr(";1")
	}
	if s.Attr.Has(AttrDim) {
		w.writeStr(";2")
	}
	if s.Attr.Has(AttrItalic) {
		w.writeStr(";3")
	}
	if s.Attr.Has(AttrUnderline) {
		w.writeStr(";4")
	}
	if s.Attr.Has(AttrBlink) {
		w.writeStr(";5")
	}
	if s.Attr.Has(AttrReverse) {
		w.writeStr(";7")
	}
	if s.Attr.Has(AttrStrike) {
		w.writeStr(";9")
	}
	if s.Attr.Has(AttrHidden) {
		w.writeStr(";8")
	}
	w.writeColor(s.FG, true)
	w.writeColor(s.BG, false)
	w.buf = append(w.buf, 'm')
}

func (w *ansiWriter) writeColor(c Color, fg bool) {
	switch c.Mode {
	case ColorDefault:
		if fg {
			w.writeStr(";39")
		} else {
			w.writeStr(";49")
		}
	case ColorIndexed:
		idx := c.Index
		if fg {
			w.writeStr(";38;5;")
		} else {
			w.writeStr(";48;5;")
		}
		w.writeInt(int(idx))
	case ColorRGB:
		if w.profile.Truecolor {
			if fg {
				w.writeStr(";38;2;")
			} else {
				w.writeStr(";48;2;")
			}
			w.writeInt(int(c.R))
			w.buf = append(w.buf, ';')
			w.writeInt(int(c.G))
			w.buf = append(w.buf, ';')
			w.writeInt(int(c.B))
		} else if w.profile.Palette256 {
			idx := NearestIndexed256(c.R, c.G, c.B)
			if fg {
				w.writeStr(";38;5;")
			} else {
				w.writeStr(";48;5;")
			}
			w.writeInt(int(idx))
		} else {
			// mono: drop color entirely, keep attributes only
			if fg {
				w.writeStr(";39")
			} else {
				w.writeStr(";49")
			}
		}
	}
}

func (w *ansiWriter) emitFull(buf *Buffer) {
	cols, rows := buf.Cols(), buf.Rows()
	for y := 0; y < rows; y++ {
		w.moveTo(0, y)
		for x := 0; x < cols; x++ {
			c := buf.Get(x, y)
			if c.IsContinuation() {
				w.advanceCursor(1)
				continue
			}
			w.writeCell(buf, c)
			w.advanceCursor(int(c.Width))
		}
	}
}

func (w *ansiWriter) emitRows(buf *Buffer, rows []int) {
	cols := buf.Cols()
	for _, y := range rows {
		w.moveTo(0, y)
		for x := 0; x < cols; x++ {
			c := buf.Get(x, y)
			if c.IsContinuation() {
				w.advanceCursor(1)
				continue
			}
			w.writeCell(buf, c)
			w.advanceCursor(int(c.Width))
		}
	}
}

func (w *ansiWriter) emitSpans(buf *Buffer, rowSpans []RowSpans) {
	for _, rs := range rowSpans {
		for _, span := range rs.Spans {
			w.moveTo(span.Start, rs.Row)
			for x := span.Start; x < span.End; x++ {
				c := buf.Get(x, rs.Row)
				if c.IsContinuation() {
					w.advanceCursor(1)
					continue
				}
				w.writeCell(buf, c)
				w.advanceCursor(int(c.Width))
			}
		}
	}
}

func (w *ansiWriter) emitTiles(buf *Buffer, tiles []TileCoord, tileW, tileH int) {
	cols, rows := buf.Cols(), buf.Rows()
	for _, t := range tiles {
		x0, y0 := t.TX*tileW, t.TY*tileH
		x1, y1 := min(x0+tileW, cols), min(y0+tileH, rows)
		for y := y0; y < y1; y++ {
			w.moveTo(x0, y)
			for x := x0; x < x1; x++ {
				c := buf.Get(x, y)
				if c.IsContinuation() {
					w.advanceCursor(1)
					continue
				}
				w.writeCell(buf, c)
				w.advanceCursor(int(c.Width))
			}
		}
	}
}
