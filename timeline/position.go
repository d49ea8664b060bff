package timeline

import "fmt"

// Position identifies where in a frame's execution order an event occurs:
// a queue index on one worker thread's axis.
//
// Positions on the same thread are totally ordered by queue index. Positions
// on different threads have no guaranteed order; consumers must treat
// cross-thread comparisons conservatively.
type Position struct {
	Thread int
	Queue  int
}

// Before reports whether p is strictly ordered before other.
// Returns false for positions on different threads, where no order is known.
func (p Position) Before(other Position) bool {
	return p.Thread == other.Thread && p.Queue < other.Queue
}

// SameThread reports whether both positions lie on the same thread axis.
func (p Position) SameThread(other Position) bool {
	return p.Thread == other.Thread
}

func (p Position) String() string {
	return fmt.Sprintf("Position[thread=%d, queue=%d]", p.Thread, p.Queue)
}
