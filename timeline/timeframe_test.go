package timeline

import (
	goerrors "errors"
	"testing"

	"github.com/wippyai/framegraph/errors"
)

func pos(thread, queue int) Position {
	return Position{Thread: thread, Queue: queue}
}

func TestNewTimeFrame_Invalid(t *testing.T) {
	if _, err := NewTimeFrame(pos(0, -1), 0); err == nil {
		t.Fatal("expected error for negative start")
	} else if !goerrors.Is(err, &errors.Error{Phase: errors.PhaseDeclare, Kind: errors.KindInvalidArgument}) {
		t.Fatalf("wrong error: %v", err)
	}
	if _, err := NewTimeFrame(pos(0, 0), -2); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestTimeFrame_ExtendTo(t *testing.T) {
	tf, err := NewTimeFrame(pos(0, 2), 0)
	if err != nil {
		t.Fatal(err)
	}

	tf.ExtendTo(pos(0, 5))
	if tf.End() != 5 || tf.Async() {
		t.Fatalf("expected end 5 sync, got end %d async %v", tf.End(), tf.Async())
	}

	// extending backwards never shrinks
	tf.ExtendTo(pos(0, 3))
	if tf.End() != 5 {
		t.Fatalf("extend shrank frame to %d", tf.End())
	}

	tf.ExtendTo(pos(1, 0))
	if !tf.Async() {
		t.Fatal("cross-thread extend should mark frame async")
	}
	if tf.End() != 5 {
		t.Fatalf("async extend changed end to %d", tf.End())
	}
}

func TestTimeFrame_Merge(t *testing.T) {
	a, _ := NewTimeFrame(pos(0, 4), 2)
	b, _ := NewTimeFrame(pos(0, 1), 1)

	a.Merge(b)
	if a.Start() != 1 || a.End() != 6 || a.Async() {
		t.Fatalf("merge = %v, want 1..6 sync", a.String())
	}

	c, _ := NewTimeFrame(pos(1, 0), 3)
	a.Merge(c)
	if !a.Async() {
		t.Fatal("merging frames on different threads should mark async")
	}
	if a.Start() != 0 {
		t.Fatalf("merge start = %d, want 0", a.Start())
	}

	// async propagates through further merges
	d, _ := NewTimeFrame(pos(0, 0), 1)
	d.Merge(a)
	if !d.Async() {
		t.Fatal("merging an async frame should propagate async")
	}
}

func TestTimeFrame_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   int
		aLen     int
		bStart   int
		bLen     int
		overlaps bool
	}{
		{"disjoint", 0, 1, 3, 1, false},
		{"touching endpoints", 0, 2, 2, 1, true},
		{"nested", 1, 5, 2, 1, true},
		{"identical", 3, 0, 3, 0, true},
		{"reverse disjoint", 5, 1, 0, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := NewTimeFrame(pos(0, tt.aStart), tt.aLen)
			b, _ := NewTimeFrame(pos(0, tt.bStart), tt.bLen)
			if got := a.Overlaps(b); got != tt.overlaps {
				t.Errorf("%s.Overlaps(%s) = %v, want %v", a.String(), b.String(), got, tt.overlaps)
			}
			if got := b.Overlaps(a); got != tt.overlaps {
				t.Errorf("overlap test is not symmetric")
			}
		})
	}
}

func TestTimeFrame_Covers(t *testing.T) {
	tf, _ := NewTimeFrame(pos(0, 2), 3)

	if !tf.Includes(2) || !tf.Includes(5) || tf.Includes(6) {
		t.Fatal("Includes bounds wrong")
	}
	if !tf.Covers(pos(0, 3)) {
		t.Error("same-thread in-range position should be covered")
	}
	if tf.Covers(pos(0, 9)) {
		t.Error("same-thread out-of-range position should not be covered")
	}
	// cross-thread positions are conservatively covered
	if !tf.Covers(pos(2, 0)) {
		t.Error("cross-thread position should be conservatively covered")
	}

	tf.ExtendTo(pos(1, 0))
	if !tf.Covers(pos(0, 100)) {
		t.Error("async frame should cover any position")
	}
}

func TestPosition_Before(t *testing.T) {
	if !pos(0, 1).Before(pos(0, 2)) {
		t.Error("1 should be before 2 on same thread")
	}
	if pos(0, 2).Before(pos(0, 2)) {
		t.Error("Before should be strict")
	}
	if pos(0, 1).Before(pos(1, 2)) {
		t.Error("cross-thread positions have no order")
	}
}
