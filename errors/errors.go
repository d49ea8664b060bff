package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which graph operation the error occurred in
type Phase string

const (
	PhaseDeclare   Phase = "declare"   // resource declaration
	PhaseReference Phase = "reference" // reference counting
	PhaseAcquire   Phase = "acquire"   // acquiring a concrete object
	PhaseRelease   Phase = "release"   // releasing a view
	PhaseAllocate  Phase = "allocate"  // pool allocation
	PhaseReserve   Phase = "reserve"   // object reservation
	PhaseCache     Phase = "cache"     // cross-frame object cache
	PhaseCull      Phase = "cull"      // reference-count culling
	PhaseWait      Phase = "wait"      // cross-thread read synchronization
	PhaseClear     Phase = "clear"     // frame teardown
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle   Kind = "invalid_handle"
	KindIllegalState    Kind = "illegal_state"
	KindInvalidArgument Kind = "invalid_argument"
	KindTimeout         Kind = "timeout"
	KindNotFound        Kind = "not_found"
	KindUndefined       Kind = "undefined"
	KindDisposal        Kind = "disposal"
)

// Error is the structured error type used throughout the framegraph library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
	Slot   int
	Object int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Name != "" {
		b.WriteString(" at ")
		b.WriteString(e.Name)
	}
	if e.Slot >= 0 {
		fmt.Fprintf(&b, " (slot %d)", e.Slot)
	}
	if e.Object >= 0 {
		fmt.Fprintf(&b, " (object %d)", e.Object)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Slot:   -1,
			Object: -1,
		},
	}
}

// Name sets the resource name
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Slot sets the slot index
func (b *Builder) Slot(slot int) *Builder {
	b.err.Slot = slot
	return b
}

// Object sets the pooled object id
func (b *Builder) Object(id int64) *Builder {
	b.err.Object = id
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidHandle creates an invalid handle error
func InvalidHandle(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidHandle).Detail(detail, args...).Build()
}

// IllegalState creates an illegal state error
func IllegalState(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindIllegalState).Detail(detail, args...).Build()
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidArgument).Detail(detail, args...).Build()
}

// Timeout creates a timeout error
func Timeout(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindTimeout).Detail(detail, args...).Build()
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return New(phase, KindNotFound).Name(name).Detail("%s %q not found", what, name).Build()
}

// Undefined creates an error for operating on an undefined resource
func Undefined(phase Phase, slot int) *Error {
	return New(phase, KindUndefined).Slot(slot).Detail("resource is undefined").Build()
}

// Disposal wraps a failure reported by a resource disposal function
func Disposal(phase Phase, objectID int64, cause error) *Error {
	return New(phase, KindDisposal).Object(objectID).Cause(cause).Detail("dispose object").Build()
}
