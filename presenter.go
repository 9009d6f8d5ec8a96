package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// CursorShape selects the terminal cursor's rendered shape (DECSCUSR).
type CursorShape int

const (
	CursorDefault        CursorShape = 0
	CursorBlockBlink     CursorShape = 1
	CursorBlock          CursorShape = 2
	CursorUnderlineBlink CursorShape = 3
	CursorUnderline      CursorShape = 4
	CursorBarBlink       CursorShape = 5
	CursorBar            CursorShape = 6
)

// PresenterMode selects how the Presenter frames frames against the host
// terminal (§4.6).
type PresenterMode int

const (
	ModeAltScreen PresenterMode = iota
	ModeInline
)

// Presenter is the one-writer authority (§4.6): every ANSI byte bound for
// the terminal passes through here. It owns raw-mode lifecycle, the
// alt-screen/inline framing, and serializes present_ui against write_log
// so a log line can never interleave mid-frame.
type Presenter struct {
	w       io.Writer
	fd      int
	profile CapabilityProfile
	mode    PresenterMode
	uiHeight int

	oldState  *term.State
	rawActive bool

	emitter Emitter
	pen     Style

	mu sync.Mutex

	linesRendered int // inline mode: how many lines the last frame used
	cursorShape   CursorShape
	cursorVisible bool
}

// NewPresenter creates a Presenter writing to w (os.Stdout if nil),
// reporting the given capability profile (normally produced by
// DetectCapabilityProfile, supplied by the host backend per §6).
func NewPresenter(w io.Writer, profile CapabilityProfile, mode PresenterMode, uiHeight int) *Presenter {
	if w == nil {
		w = os.Stdout
	}
	fd := -1
	if f, ok := w.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Presenter{
		w:             w,
		fd:            fd,
		profile:       profile,
		mode:          mode,
		uiHeight:      uiHeight,
		pen:           DefaultStyle(),
		cursorVisible: true,
	}
}

// Capabilities reports the active profile.
func (p *Presenter) Capabilities() CapabilityProfile {
	return p.profile
}

// Start enters raw mode and the lifecycle framing appropriate to Mode:
// alt-screen entry for ModeAltScreen, or a cursor save (ESC 7) for
// ModeInline; no strip is reserved at Start.
func (p *Presenter) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fd >= 0 {
		state, err := term.MakeRaw(p.fd)
		if err != nil {
			return fmt.Errorf("render: entering raw mode: %w", err)
		}
		p.oldState = state
		p.rawActive = true
	}

	switch p.mode {
	case ModeAltScreen:
		return p.rawWrite([]byte("\x1b[?1049h\x1b[2J\x1b[H\x1b[?25l"))
	case ModeInline:
		return p.rawWrite([]byte("\x1b7"))
	}
	return nil
}

// Stop performs the best-effort cleanup sequence required on exit
// (normal or panic, §4.6/§7): restore cursor visibility, exit alt-screen
// or unwind the inline strip, disable mouse/paste/focus/kitty features,
// reset SGR, and restore the terminal's original termios state.
func (p *Presenter) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var cleanup bytes.Buffer
	cleanup.WriteString("\x1b[?2004l") // bracketed paste off
	cleanup.WriteString("\x1b[?1000l") // mouse reporting off
	cleanup.WriteString("\x1b[?1004l") // focus events off
	cleanup.WriteString("\x1b[>1u")    // kitty keyboard pop (best effort; ignored if unsupported)
	cleanup.WriteString("\x1b[?25h")   // cursor visible

	switch p.mode {
	case ModeAltScreen:
		cleanup.WriteString("\x1b[?1049l")
	case ModeInline:
		if p.linesRendered > 0 {
			if p.linesRendered > 1 {
				fmt.Fprintf(&cleanup, "\x1b[%dB", p.linesRendered-1)
			}
			cleanup.WriteString("\r\n")
		}
	}
	cleanup.WriteString("\x1b[0m")

	writeErr := p.rawWrite(cleanup.Bytes())

	if p.rawActive && p.fd >= 0 && p.oldState != nil {
		_ = term.Restore(p.fd, p.oldState)
		p.rawActive = false
	}
	return writeErr
}

// PresentUI emits a frame for diff against buf using profile-aware
// framing, and writes it atomically to the sink: either every byte is
// written or a single SinkWriteError surfaces (retried once on I/O
// failure before giving up). fullRepaintHint forces a screen clear ahead
// of the diff's own content, independent of which DiffOutput variant was
// chosen (used on resize/resync). The returned checksum is the SHA-256 of
// the exact bytes written, for a render trace entry to record.
func (p *Presenter) PresentUI(buf *Buffer, diff DiffOutput, fullRepaintHint bool) (int, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts := EmitOptions{
		SyncOutput:   p.profile.SyncOutput,
		ScrollRegion: p.mode == ModeInline && p.profile.ScrollRegion,
	}
	if opts.ScrollRegion {
		opts.ScrollTop = 1
		opts.ScrollBottom = p.uiHeight
	}

	var out bytes.Buffer
	if fullRepaintHint {
		out.WriteString("\x1b[2J\x1b[H")
	}
	if p.mode == ModeInline && !opts.ScrollRegion {
		// Overlay Redraw fallback (§4.6): no DECSTBM available (mux), so
		// anchor via cursor save/restore instead of a scroll region.
		out.WriteString("\x1b7")
	}

	bytesOut, newPen := p.emitter.Emit(buf, diff, p.profile, p.pen, opts)
	out.Write(bytesOut)
	p.pen = newPen

	if p.mode == ModeInline {
		if !opts.ScrollRegion {
			out.WriteString("\x1b8")
		}
		p.linesRendered = buf.Rows()
		if p.uiHeight > 0 && p.uiHeight < p.linesRendered {
			p.linesRendered = p.uiHeight
		}
	}

	sum := Checksum(out.Bytes())
	n, err := p.write(out.Bytes())
	return n, sum, err
}

// WriteLog writes a user-scope pass-through line (e.g. inline scrollback
// text). It is serialized against PresentUI by the same mutex so no log
// line can interleave mid-frame.
func (p *Presenter) WriteLog(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.write([]byte(text))
	return err
}

// GC releases any scratch resources the Presenter itself holds. The
// Presenter keeps no scratch buffers of its own beyond what DoubleBuffer
// already manages, so this is currently a no-op retained to satisfy the
// Backend trait's presenter.gc() contract (§6).
func (p *Presenter) GC() {}

// write performs the atomic, retry-once write discipline (§7
// SinkWriteError): a frame is either written in full or a single typed
// error surfaces.
func (p *Presenter) write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if err == nil {
		return n, nil
	}
	n2, err2 := p.w.Write(b[n:])
	if err2 == nil {
		return n + n2, nil
	}
	return n + n2, &SinkWriteError{Attempt: 2, Err: err2}
}

func (p *Presenter) rawWrite(b []byte) error {
	_, err := p.write(b)
	return err
}

// SetCursor writes cursor position, shape, and visibility for the next
// frame's presentation.
func (p *Presenter) SetCursor(c Cursor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\x1b[%d q", int(c.Style))
	fmt.Fprintf(&buf, "\x1b[%d;%dH", c.Y+1, c.X+1)
	if c.Visible {
		buf.WriteString("\x1b[?25h")
	} else {
		buf.WriteString("\x1b[?25l")
	}
	p.cursorShape = c.Style
	p.cursorVisible = c.Visible
	_, err := p.write(buf.Bytes())
	return err
}
