package capture

import (
	"sync"

	"github.com/wippyai/framegraph/timeline"
)

// EventType identifies a graph or pool lifecycle event.
type EventType uint8

const (
	EventDeclare EventType = iota
	EventReference
	EventAcquire
	EventRelease
	EventReleaseObject
	EventAttemptReallocate
	EventReallocate
	EventCreate
	EventReserve
	EventDispose
	EventFlush
	EventUndefined
	EventConstant
	EventClear
	EventValue
)

var eventNames = [...]string{
	"declare",
	"reference",
	"acquire",
	"release",
	"release_object",
	"attempt_reallocate",
	"reallocate",
	"create",
	"reserve",
	"dispose",
	"flush",
	"undefined",
	"constant",
	"clear",
	"value",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event is one observational record emitted by the graph or the pool.
// Which fields are meaningful depends on Type: slot events carry Slot and
// Name, object events carry Object, counter events carry Name and Count.
type Event struct {
	Type   EventType
	Slot   int
	Object int64
	Pos    timeline.Position
	Name   string
	Count  int
}

// Capture receives lifecycle events. Implementations must be safe for
// concurrent use; events may arrive from multiple worker threads during an
// asynchronous frame. Captures are purely observational and must never
// affect control flow.
type Capture interface {
	OnGraphEvent(Event)
}

// Recorder is a Capture that accumulates events in memory, mainly for tests
// and offline inspection of a frame's allocation behavior.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnGraphEvent(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// CountOf returns how many events of the given type were recorded.
func (r *Recorder) CountOf(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Value returns the last counter event recorded under name.
func (r *Recorder) Value(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == EventValue && r.events[i].Name == name {
			return r.events[i].Count, true
		}
	}
	return 0, false
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = r.events[:0]
	r.mu.Unlock()
}
