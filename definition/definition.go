package definition

// Definition describes how to create, reuse, and dispose one kind of
// backing resource. The pool consults a declaration's definition whenever it
// must decide whether an existing object can serve it.
type Definition interface {
	// CreateResource builds a fresh payload for a new pooled object.
	CreateResource() any

	// Dispose releases a payload previously produced by CreateResource or
	// accepted by a binding function.
	Dispose(value any) error

	// StaticTimeout returns the number of frame boundaries an unused object
	// of this definition survives before eviction. Negative values defer to
	// the pool's default.
	StaticTimeout() int

	// UseExisting reports whether the pool may satisfy this definition from
	// existing objects at all. When false, allocation always creates.
	UseExisting() bool

	// AllowCasualAllocation reports whether objects of this definition may
	// be picked up by a pool scan without a specific object id.
	AllowCasualAllocation() bool

	// AllowReservations reports whether objects of this definition may be
	// reserved for a future pass.
	AllowReservations() bool

	// DisposeOnRelease reports whether the object is disposed as soon as its
	// view is fully released, instead of returning to the pool.
	DisposeOnRelease() bool

	// ReadConcurrent reports whether a released resource may be read by any
	// number of waiting passes at once. When false, readers claim exclusive
	// access one at a time.
	ReadConcurrent() bool
}

// DirectBinder is optionally implemented by definitions whose payloads can
// strictly satisfy the definition as-is. ApplyDirect returns the payload to
// bind, or nil if the existing payload is rejected.
type DirectBinder interface {
	ApplyDirect(existing any) any
}

// IndirectBinder is optionally implemented by definitions whose payloads can
// loosely satisfy the definition, typically after reconfiguration. Indirect
// matches are less desirable than direct ones; the pool binds one only when
// no direct match exists. ApplyIndirect returns the payload to bind, or nil.
type IndirectBinder interface {
	ApplyIndirect(existing any) any
}

// ApplyDirect applies def's direct binding function to an existing payload,
// or returns nil when def has none.
func ApplyDirect(def Definition, existing any) any {
	if b, ok := def.(DirectBinder); ok {
		return b.ApplyDirect(existing)
	}
	return nil
}

// ApplyIndirect applies def's indirect binding function to an existing
// payload, or returns nil when def has none.
func ApplyIndirect(def Definition, existing any) any {
	if b, ok := def.(IndirectBinder); ok {
		return b.ApplyIndirect(existing)
	}
	return nil
}

// Base is an embeddable Definition implementation holding the policy flags
// with their conventional defaults. Embedders provide CreateResource and
// optionally the binding capabilities.
type Base struct {
	DisposalFunc   func(value any) error
	Timeout        int
	NoUseExisting  bool
	NoCasual       bool
	NoReservations bool
	Transient      bool // dispose as soon as the view is fully released
	ExclusiveRead  bool
}

// NewBase returns a Base with default policy: reuse allowed, casual
// allocation and reservations allowed, pooled on release, concurrent reads,
// pool-default timeout.
func NewBase() Base {
	return Base{Timeout: -1}
}

func (b *Base) Dispose(value any) error {
	if b.DisposalFunc != nil {
		return b.DisposalFunc(value)
	}
	return nil
}

func (b *Base) StaticTimeout() int          { return b.Timeout }
func (b *Base) UseExisting() bool           { return !b.NoUseExisting }
func (b *Base) AllowCasualAllocation() bool { return !b.NoCasual }
func (b *Base) AllowReservations() bool     { return !b.NoReservations }
func (b *Base) DisposeOnRelease() bool      { return b.Transient }
func (b *Base) ReadConcurrent() bool        { return !b.ExclusiveRead }
