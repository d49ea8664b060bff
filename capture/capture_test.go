package capture

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/framegraph/timeline"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.OnGraphEvent(Event{Type: EventDeclare, Slot: 0, Name: "color"})
	r.OnGraphEvent(Event{Type: EventDeclare, Slot: 1, Name: "depth"})
	r.OnGraphEvent(Event{Type: EventCreate, Slot: 0, Object: 1})
	r.OnGraphEvent(Event{Type: EventValue, Name: "objectsCreated", Count: 1})
	r.OnGraphEvent(Event{Type: EventValue, Name: "objectsCreated", Count: 3})

	if got := r.CountOf(EventDeclare); got != 2 {
		t.Errorf("CountOf(EventDeclare) = %d, want 2", got)
	}
	if got := r.CountOf(EventDispose); got != 0 {
		t.Errorf("CountOf(EventDispose) = %d, want 0", got)
	}
	if v, ok := r.Value("objectsCreated"); !ok || v != 3 {
		t.Errorf("Value(objectsCreated) = %d,%v, want 3,true", v, ok)
	}
	if _, ok := r.Value("missing"); ok {
		t.Error("Value should report missing counters")
	}

	events := r.Events()
	if len(events) != 5 {
		t.Fatalf("Events() returned %d events, want 5", len(events))
	}
	if events[0].Name != "color" || events[1].Name != "depth" {
		t.Error("events out of order")
	}

	r.Reset()
	if len(r.Events()) != 0 {
		t.Error("Reset did not clear events")
	}
}

func TestEventType_String(t *testing.T) {
	if EventDeclare.String() != "declare" {
		t.Errorf("EventDeclare = %q", EventDeclare.String())
	}
	if EventValue.String() != "value" {
		t.Errorf("EventValue = %q", EventValue.String())
	}
	if EventType(200).String() != "unknown" {
		t.Errorf("out-of-range type = %q", EventType(200).String())
	}
}

func TestLogCapture(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewLogCapture(zap.New(core))

	c.OnGraphEvent(Event{Type: EventReallocate, Slot: 2, Object: 7, Name: "gbuffer"})
	c.OnGraphEvent(Event{Type: EventReserve, Object: 7, Pos: timeline.Position{Thread: 1, Queue: 4}})
	c.OnGraphEvent(Event{Type: EventValue, Name: "flushedObjects", Count: 2})
	c.OnGraphEvent(Event{Type: EventDispose, Object: 9})

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("logged %d entries, want 4", len(entries))
	}
	if entries[0].Message != "reallocate" {
		t.Errorf("first message = %q", entries[0].Message)
	}
	fields := entries[1].ContextMap()
	if fields["object"] != int64(7) || fields["queue"] != int64(4) {
		t.Errorf("reserve fields = %v", fields)
	}
	if entries[2].ContextMap()["counter"] != "flushedObjects" {
		t.Errorf("value fields = %v", entries[2].ContextMap())
	}
	dispose := entries[3].ContextMap()
	if dispose["object"] != int64(9) {
		t.Errorf("dispose fields = %v", dispose)
	}
	if _, ok := dispose["slot"]; ok {
		t.Errorf("dispose entry carries a slot field: %v", dispose)
	}
}

func TestLogCapture_NilLogger(t *testing.T) {
	c := NewLogCapture(nil)
	// must not panic
	c.OnGraphEvent(Event{Type: EventDispose, Object: 1})
}
