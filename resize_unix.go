//go:build unix

package render

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// TerminalSize queries the current column/row count of fd via
// TIOCGWINSZ. Returns ok=false (and a conservative 80x24 fallback) when
// the ioctl fails, e.g. fd is not a terminal.
func TerminalSize(fd int) (cols, rows int, ok bool) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 80, 24, false
	}
	return int(ws.Col), int(ws.Row), true
}

// ResizeWatcher turns SIGWINCH into a channel of (cols, rows) pairs so a
// host loop can call Program.Resize without polling.
type ResizeWatcher struct {
	fd     int
	sig    chan os.Signal
	events chan [2]int
	stop   chan struct{}
	done   chan struct{}
}

// NewResizeWatcher starts watching SIGWINCH for the terminal attached to
// fd. Call Stop to release the signal registration.
func NewResizeWatcher(fd int) *ResizeWatcher {
	w := &ResizeWatcher{
		fd:     fd,
		sig:    make(chan os.Signal, 1),
		events: make(chan [2]int, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	signal.Notify(w.sig, syscall.SIGWINCH)
	go w.loop()
	return w
}

// Events returns the channel of (cols, rows) pairs; only the most recent
// unconsumed resize is kept.
func (w *ResizeWatcher) Events() <-chan [2]int { return w.events }

// Stop unregisters the signal handler and ends the watch goroutine.
func (w *ResizeWatcher) Stop() {
	signal.Stop(w.sig)
	close(w.stop)
	<-w.done
}

func (w *ResizeWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.sig:
			cols, rows, ok := TerminalSize(w.fd)
			if !ok {
				continue
			}
			select {
			case w.events <- [2]int{cols, rows}:
			default:
				select {
				case <-w.events:
				default:
				}
				w.events <- [2]int{cols, rows}
			}
		}
	}
}
