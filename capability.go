package render

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/lucasb-eyer/go-colorful"
)

// Multiplexer identifies a terminal multiplexer wrapping the real terminal.
// Multiplexers routinely swallow or mis-forward sync-output brackets and
// DECSTBM scroll regions, so the Emitter must know when one is present.
type Multiplexer int

const (
	MuxNone Multiplexer = iota
	MuxTmux
	MuxScreen
	MuxZellij
)

func (m Multiplexer) String() string {
	switch m {
	case MuxTmux:
		return "tmux"
	case MuxScreen:
		return "screen"
	case MuxZellij:
		return "zellij"
	default:
		return "none"
	}
}

// CapabilityProfile is the capability set a backend reports to the core
// (§6). The render core never probes the terminal directly — it degrades
// its own behavior based on what it is told.
type CapabilityProfile struct {
	Truecolor       bool
	Palette256      bool
	SyncOutput      bool
	ScrollRegion    bool
	OSC8            bool
	KittyKeyboard   bool
	Mux             Multiplexer
	InlineSupported bool
}

// DetectCapabilityProfile builds a CapabilityProfile from the environment
// using colorprofile for color-depth detection and well-known multiplexer
// environment variables, the same signals a native backend would forward
// to the core through the Backend trait.
func DetectCapabilityProfile() CapabilityProfile {
	p := colorprofile.Detect(os.Stdout, os.Environ())

	mux := detectMux()
	hasMux := mux != MuxNone

	return CapabilityProfile{
		Truecolor:       p == colorprofile.TrueColor,
		Palette256:      p >= colorprofile.ANSI256,
		SyncOutput:      !hasMux,
		ScrollRegion:    !hasMux,
		OSC8:            p != colorprofile.NoTTY,
		KittyKeyboard:   os.Getenv("KITTY_WINDOW_ID") != "" || os.Getenv("TERM") == "xterm-kitty",
		Mux:             mux,
		InlineSupported: p != colorprofile.NoTTY,
	}
}

func detectMux() Multiplexer {
	switch {
	case os.Getenv("TMUX") != "":
		return MuxTmux
	case os.Getenv("ZELLIJ") != "":
		return MuxZellij
	case os.Getenv("STY") != "":
		return MuxScreen
	default:
		return MuxNone
	}
}

// NearestIndexed256 maps an RGB color to the closest of the 256-color
// palette's 216 color-cube entries plus the 24-step grayscale ramp, for
// use when a profile lacks truecolor support. Distance is computed in
// Lab space via go-colorful so the perceptual nearest match is picked
// rather than the naive Euclidean-in-RGB nearest.
func NearestIndexed256(r, g, b uint8) uint8 {
	target := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}

	best := uint8(16)
	bestDist := -1.0
	for i := 16; i < 256; i++ {
		cr, cg, cb := palette256Entry(i)
		cand := colorful.Color{R: float64(cr) / 255, G: float64(cg) / 255, B: float64(cb) / 255}
		d := target.DistanceLab(cand)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = uint8(i)
		}
	}
	return best
}

// palette256Entry returns the RGB value of the xterm 256-color palette
// entry i (i must be in [16,255]): the 6x6x6 color cube (16-231) followed
// by the 24-step grayscale ramp (232-255).
func palette256Entry(i int) (r, g, b uint8) {
	if i >= 232 {
		level := uint8(8 + (i-232)*10)
		return level, level, level
	}
	i -= 16
	steps := [6]uint8{0, 95, 135, 175, 215, 255}
	r = steps[(i/36)%6]
	g = steps[(i/6)%6]
	b = steps[i%6]
	return r, g, b
}
