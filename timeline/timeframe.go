package timeline

import (
	"fmt"

	"github.com/wippyai/framegraph/errors"
)

// TimeFrame is an interval [start, start+length] on one thread's position
// axis, used to estimate the lifetime of a resource declaration.
//
// Extending a frame with a position on another thread degrades it to
// asynchronous: its end index is unreliable and consumers treat it as
// lasting until frame end. The interval math deliberately overestimates
// rather than underestimates, so an object is never judged free while a
// reader on another thread may still be in flight.
type TimeFrame struct {
	thread int
	start  int
	length int
	async  bool
}

// NewTimeFrame creates a time frame starting at pos and spanning length
// following positions on the same thread.
func NewTimeFrame(pos Position, length int) (TimeFrame, error) {
	if pos.Queue < 0 {
		return TimeFrame{}, errors.InvalidArgument(errors.PhaseDeclare, "start position cannot be negative: %d", pos.Queue)
	}
	if length < 0 {
		return TimeFrame{}, errors.InvalidArgument(errors.PhaseDeclare, "length cannot be negative: %d", length)
	}
	return TimeFrame{thread: pos.Thread, start: pos.Queue, length: length}, nil
}

// ExtendTo grows the frame so that it includes pos.
// A position on a different thread marks the frame asynchronous instead of
// growing the length.
func (t *TimeFrame) ExtendTo(pos Position) {
	if pos.Thread != t.thread {
		t.async = true
	} else if n := pos.Queue - t.start; n > t.length {
		t.length = n
	}
}

// Merge unions the other frame's span into this one.
// The merged frame starts at the earlier start; it becomes asynchronous if
// either frame was asynchronous or the threads differ.
func (t *TimeFrame) Merge(other TimeFrame) {
	end := max(t.start+t.length, other.start+other.length)
	t.start = min(t.start, other.start)
	if other.async || t.thread != other.thread {
		t.async = true
	} else {
		t.length = end - t.start
	}
}

// Thread returns the index of the thread this frame is based on.
func (t *TimeFrame) Thread() int {
	return t.thread
}

// Start returns the queue index of the first position the frame includes.
func (t *TimeFrame) Start() int {
	return t.start
}

// Length returns the number of positions the frame spans past its start.
func (t *TimeFrame) Length() int {
	return t.length
}

// End returns the queue index of the last position the frame includes.
// Unreliable when the frame is asynchronous.
func (t *TimeFrame) End() int {
	return t.start + t.length
}

// Async reports whether the frame spans multiple threads.
// An asynchronous frame's end index is unreliable.
func (t *TimeFrame) Async() bool {
	return t.async
}

// Overlaps reports whether the two frames share at least one position.
// The test is closed-interval and therefore conservative: touching endpoints
// count as overlap, and overlap is never missed at the cost of occasional
// false positives.
func (t *TimeFrame) Overlaps(other TimeFrame) bool {
	return t.start <= other.start+other.length && t.start+t.length >= other.start
}

// Includes reports whether the frame covers the given queue index.
func (t *TimeFrame) Includes(queue int) bool {
	return t.start <= queue && t.start+t.length >= queue
}

// Covers reports whether the frame may cover the given position.
// Cross-thread positions and asynchronous frames are treated as covered,
// since the frame's true extent on other threads is unknown.
func (t *TimeFrame) Covers(pos Position) bool {
	if t.async || pos.Thread != t.thread {
		return true
	}
	return t.Includes(pos.Queue)
}

func (t TimeFrame) String() string {
	if t.async {
		return fmt.Sprintf("TimeFrame[thread=%d, start=%d, async]", t.thread, t.start)
	}
	return fmt.Sprintf("TimeFrame[thread=%d, %d..%d]", t.thread, t.start, t.start+t.length)
}
