package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseAcquire,
				Kind:   KindIllegalState,
				Name:   "shadow-map",
				Slot:   4,
				Object: 17,
				Detail: "object is already acquired",
			},
			contains: []string{"[acquire]", "illegal_state", "shadow-map", "slot 4", "object 17", "already acquired"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseCull,
				Kind:   KindInvalidHandle,
				Slot:   -1,
				Object: -1,
			},
			contains: []string{"[cull]", "invalid_handle"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseClear,
				Kind:   KindDisposal,
				Slot:   -1,
				Object: 3,
				Detail: "dispose object",
				Cause:  errors.New("buffer still mapped"),
			},
			contains: []string{"[clear]", "disposal", "object 3", "caused by", "buffer still mapped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Disposal(PhaseRelease, 9, cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := Timeout(PhaseWait, "resource unreachable after %dms", 5000)

	if !errors.Is(err, &Error{Phase: PhaseWait, Kind: KindTimeout}) {
		t.Error("expected match on same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseWait, Kind: KindIllegalState}) {
		t.Error("unexpected match on different kind")
	}
	if errors.Is(err, &Error{Phase: PhaseAcquire, Kind: KindTimeout}) {
		t.Error("unexpected match on different phase")
	}
	if errors.Is(err, errors.New("timeout")) {
		t.Error("unexpected match on plain error")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("gl error")
	err := New(PhaseAllocate, KindIllegalState).
		Name("gbuffer").
		Slot(2).
		Object(11).
		Detail("cannot bind %s", "constant object").
		Cause(cause).
		Build()

	if err.Phase != PhaseAllocate || err.Kind != KindIllegalState {
		t.Fatalf("wrong phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Name != "gbuffer" || err.Slot != 2 || err.Object != 11 {
		t.Fatalf("wrong context fields: %+v", err)
	}
	if err.Detail != "cannot bind constant object" {
		t.Fatalf("wrong detail: %q", err.Detail)
	}
	if !errors.Is(err, &Error{Phase: PhaseAllocate, Kind: KindIllegalState}) {
		t.Error("builder error does not match phase/kind")
	}
	if !errors.Is(err, cause) {
		t.Error("builder error does not unwrap to cause")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if e := InvalidHandle(PhaseAcquire, "nil ticket"); e.Kind != KindInvalidHandle {
		t.Errorf("InvalidHandle kind = %s", e.Kind)
	}
	if e := IllegalState(PhaseCache, "resource is virtual"); e.Kind != KindIllegalState {
		t.Errorf("IllegalState kind = %s", e.Kind)
	}
	if e := InvalidArgument(PhaseDeclare, "reserved name"); e.Kind != KindInvalidArgument {
		t.Errorf("InvalidArgument kind = %s", e.Kind)
	}
	if e := NotFound(PhaseCache, "cached object", "hdr-target"); e.Kind != KindNotFound || !strings.Contains(e.Error(), "hdr-target") {
		t.Errorf("NotFound = %v", e)
	}
	if e := Undefined(PhaseAcquire, 7); e.Kind != KindUndefined || e.Slot != 7 {
		t.Errorf("Undefined = %v", e)
	}
}
