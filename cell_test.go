package render

import "testing"

func TestAttribute(t *testing.T) {
	t.Run("Has", func(t *testing.T) {
		attr := AttrBold | AttrItalic
		if !attr.Has(AttrBold) {
			t.Error("expected attr to have Bold")
		}
		if !attr.Has(AttrItalic) {
			t.Error("expected attr to have Italic")
		}
		if attr.Has(AttrUnderline) {
			t.Error("expected attr to not have Underline")
		}
	})

	t.Run("With", func(t *testing.T) {
		attr := AttrBold
		attr = attr.With(AttrItalic)
		if !attr.Has(AttrBold) || !attr.Has(AttrItalic) {
			t.Error("expected attr to have both Bold and Italic")
		}
	})

	t.Run("Without", func(t *testing.T) {
		attr := AttrBold | AttrItalic
		attr = attr.Without(AttrBold)
		if attr.Has(AttrBold) {
			t.Error("expected attr to not have Bold")
		}
		if !attr.Has(AttrItalic) {
			t.Error("expected attr to still have Italic")
		}
	})
}

func TestColor(t *testing.T) {
	t.Run("DefaultColor", func(t *testing.T) {
		c := DefaultColor()
		if c.Mode != ColorDefault {
			t.Errorf("expected ColorDefault, got %v", c.Mode)
		}
	})

	t.Run("Indexed", func(t *testing.T) {
		c := Indexed(200)
		if c.Mode != ColorIndexed || c.Index != 200 {
			t.Errorf("expected ColorIndexed with index 200, got %v/%d", c.Mode, c.Index)
		}
	})

	t.Run("RGB", func(t *testing.T) {
		c := RGB(255, 128, 64)
		if c.Mode != ColorRGB || c.R != 255 || c.G != 128 || c.B != 64 {
			t.Errorf("expected RGB(255,128,64), got %+v", c)
		}
	})

	t.Run("Equal", func(t *testing.T) {
		c1 := RGB(100, 100, 100)
		c2 := RGB(100, 100, 100)
		c3 := RGB(100, 100, 101)

		if !c1.Equal(c2) {
			t.Error("expected c1 and c2 to be equal")
		}
		if c1.Equal(c3) {
			t.Error("expected c1 and c3 to not be equal")
		}
	})
}

func TestStyle(t *testing.T) {
	t.Run("DefaultStyle", func(t *testing.T) {
		s := DefaultStyle()
		if s.FG.Mode != ColorDefault || s.BG.Mode != ColorDefault {
			t.Error("expected default colors")
		}
		if s.Attr != AttrNone {
			t.Error("expected no attributes")
		}
	})

	t.Run("Chaining", func(t *testing.T) {
		s := DefaultStyle().
			Foreground(RGB(255, 0, 0)).
			Background(RGB(0, 0, 255)).
			Bold().
			Italic()

		if !s.FG.Equal(RGB(255, 0, 0)) {
			t.Error("expected red foreground")
		}
		if !s.BG.Equal(RGB(0, 0, 255)) {
			t.Error("expected blue background")
		}
		if !s.Attr.Has(AttrBold) || !s.Attr.Has(AttrItalic) {
			t.Error("expected Bold and Italic attributes")
		}
	})

	t.Run("Equal", func(t *testing.T) {
		s1 := DefaultStyle().Foreground(RGB(1, 2, 3)).Bold()
		s2 := DefaultStyle().Foreground(RGB(1, 2, 3)).Bold()
		s3 := DefaultStyle().Foreground(RGB(1, 2, 3))

		if !s1.Equal(s2) {
			t.Error("expected s1 and s2 to be equal")
		}
		if s1.Equal(s3) {
			t.Error("expected s1 and s3 to not be equal")
		}
	})
}

func TestCell(t *testing.T) {
	t.Run("EmptyCell", func(t *testing.T) {
		c := EmptyCell()
		if c.Ch != " " || c.Width != 1 {
			t.Errorf("expected single space, got %+v", c)
		}
	})

	t.Run("NewCell", func(t *testing.T) {
		style := DefaultStyle().Foreground(RGB(1, 2, 3))
		c := NewCell("X", style)
		if c.Ch != "X" || !c.Style().Equal(style) {
			t.Error("cell not created correctly")
		}
	})

	t.Run("Equal", func(t *testing.T) {
		c1 := NewCell("A", DefaultStyle().Foreground(RGB(1, 2, 3)))
		c2 := NewCell("A", DefaultStyle().Foreground(RGB(1, 2, 3)))
		c3 := NewCell("B", DefaultStyle().Foreground(RGB(1, 2, 3)))

		if !c1.Equal(c2) {
			t.Error("expected c1 and c2 to be equal")
		}
		if c1.Equal(c3) {
			t.Error("expected c1 and c3 to not be equal")
		}
	})

	t.Run("IsContinuation", func(t *testing.T) {
		wide := Cell{Ch: "中", Width: 2}
		cont := Cell{Width: 0}
		if wide.IsContinuation() {
			t.Error("width-2 leader should not be a continuation")
		}
		if !cont.IsContinuation() {
			t.Error("width-0 cell should be a continuation")
		}
	})
}
