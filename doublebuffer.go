package render

import "fmt"

// BorrowError is returned when a DoubleBuffer borrow rule is violated:
// back_mut cannot be obtained while front is checked out, and vice versa.
type BorrowError struct {
	Held      string
	Requested string
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("render: cannot borrow %s while %s is held", e.Requested, e.Held)
}

// DoubleBuffer owns a front/back Buffer pair with O(1) swap (§4.2). The
// swap never allocates and never replaces the two underlying *Buffer
// values — only which role (front or back) each currently plays — so a
// Presenter or Differ holding a reference across a swap observes its
// buffer's identity unchanged, just its role flipped.
//
// The scratch field records the previously-front buffer after each Swap.
// That buffer is also the new back, so scratch never holds storage of its
// own.
type DoubleBuffer struct {
	bufs    [2]*Buffer
	frontIx int // index into bufs of the current front

	scratch *Buffer

	frontBorrowed bool
	backBorrowed  bool
}

// NewDoubleBuffer creates a DoubleBuffer with both sides sized cols×rows.
func NewDoubleBuffer(cols, rows int) *DoubleBuffer {
	return &DoubleBuffer{
		bufs: [2]*Buffer{NewBuffer(cols, rows), NewBuffer(cols, rows)},
	}
}

// Front borrows the front buffer read-only. Callers must call ReleaseFront
// when done; back_mut cannot be obtained while the borrow is outstanding.
func (d *DoubleBuffer) Front() (*Buffer, error) {
	if d.backBorrowed {
		return nil, &BorrowError{Held: "back_mut", Requested: "front"}
	}
	d.frontBorrowed = true
	return d.bufs[d.frontIx], nil
}

// ReleaseFront ends a Front borrow.
func (d *DoubleBuffer) ReleaseFront() { d.frontBorrowed = false }

// BackMut borrows the back buffer exclusively for compositing. Callers
// must call ReleaseBack when done; front cannot be borrowed concurrently.
func (d *DoubleBuffer) BackMut() (*Buffer, error) {
	if d.frontBorrowed {
		return nil, &BorrowError{Held: "front", Requested: "back_mut"}
	}
	d.backBorrowed = true
	return d.bufs[1-d.frontIx], nil
}

// ReleaseBack ends a BackMut borrow.
func (d *DoubleBuffer) ReleaseBack() { d.backBorrowed = false }

// Swap exchanges the front/back roles in O(1): a single index flip, no
// allocation, no copy. The buffer that was front becomes the new back and
// is recorded as scratch; its contents are kept, not cleared, so the next
// compose draws over them.
func (d *DoubleBuffer) Swap() error {
	if d.frontBorrowed || d.backBorrowed {
		return fmt.Errorf("render: cannot swap while a borrow is outstanding")
	}
	d.scratch = d.bufs[d.frontIx]
	d.frontIx = 1 - d.frontIx
	return nil
}

// GC drops the scratch reference. It is always safe to call; a nil
// scratch is a no-op. It does not check for memory pressure, and it frees
// no memory while the pair is alive, since scratch is the same buffer as
// the current back.
func (d *DoubleBuffer) GC() {
	d.scratch = nil
}

// Resize replaces both sides atomically with freshly sized, cleared
// buffers. Per §4.2 this discards any in-flight diff against the old
// size by policy — there is no well-defined diff between differently
// sized buffers, so the next frame after a resize is always a Full
// repaint.
func (d *DoubleBuffer) Resize(cols, rows int) {
	d.bufs[0] = NewBuffer(cols, rows)
	d.bufs[1] = NewBuffer(cols, rows)
	d.frontIx = 0
	d.scratch = nil
	d.frontBorrowed = false
	d.backBorrowed = false
}

// Size returns the current cols, rows shared by both sides.
func (d *DoubleBuffer) Size() (cols, rows int) {
	return d.bufs[d.frontIx].Size()
}
