package render

import "fmt"

// Theme provides the small set of styles the Safety-tier status frame
// (drawn by Program, whose visibility flips log hud_toggle) uses. It intentionally
// stays tiny: widget theming is an application-layer concern external to
// the render core (§1); this is only what C7's degraded status line and
// C8's hud_toggle evidence need to stay legible across color profiles.
type Theme struct {
	Base   Style
	Muted  Style
	Accent Style
	Error  Style
}

// ThemeDark is a dark-background theme using 16-color indices so it
// degrades gracefully under a mono capability profile.
var ThemeDark = Theme{
	Base:   Style{FG: Indexed(7)},
	Muted:  Style{FG: Indexed(8)},
	Accent: Style{FG: Indexed(14)},
	Error:  Style{FG: Indexed(9)},
}

// ThemeMonochrome uses only attributes, for a capability profile lacking
// any color support.
var ThemeMonochrome = Theme{
	Base:   Style{},
	Muted:  Style{Attr: AttrDim},
	Accent: Style{Attr: AttrBold},
	Error:  Style{Attr: AttrBold | AttrUnderline},
}

// ForProfile picks a legible theme for the given capability profile.
func (t Theme) ForProfile(p CapabilityProfile) Theme {
	if !p.Truecolor && !p.Palette256 {
		return ThemeMonochrome
	}
	return t
}

// DrawStatusFrame overwrites row 0 of back with the degraded-tier status
// line: the tier name in the theme's Error style, padded out with the
// Muted style for the rest of the row. Program calls this once per tick
// while the Scheduler reports TierSafety, after composeFn has drawn.
func DrawStatusFrame(back *Buffer, t Theme, tier DegradationTier) {
	label := fmt.Sprintf(" DEGRADED: %s ", tier.String())
	n := back.WriteText(0, 0, label, t.Error)
	if n < back.Cols() {
		back.FillRect(Rect{X: n, Y: 0, W: back.Cols() - n, H: 1}, Cell{Ch: " ", Width: 1, FG: t.Muted.FG, BG: t.Muted.BG, Attr: t.Muted.Attr})
	}
}
