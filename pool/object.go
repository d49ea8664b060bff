package pool

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/framegraph/definition"
	"github.com/wippyai/framegraph/errors"
	"github.com/wippyai/framegraph/timeline"
)

// Object is one concrete backing instance owned by the pool: a payload
// produced by a resource definition plus the state controlling when it may
// be reused.
//
// At most one view holds an Object at a time. All mutation of the
// acquisition state goes through the pool's allocation paths; in concurrent
// mode a candidate is only tested or claimed while its lock is held, and the
// lock is never held across a scan of the whole pool.
type Object struct {
	id    int64
	def   definition.Definition
	value any

	acquired    atomic.Bool
	constant    atomic.Bool
	inspect     atomic.Bool
	prioritized atomic.Bool

	// mu is the per-object critical section for concurrent allocation.
	mu sync.Mutex

	resMu        sync.Mutex
	reservations []timeline.Position

	timeout  int
	lifespan int
	lastTick uint64
	disposed bool
}

func newObject(id int64, def definition.Definition, value any, defaultTimeout int) *Object {
	timeout := def.StaticTimeout()
	if timeout < 0 {
		timeout = defaultTimeout
	}
	return &Object{
		id:       id,
		def:      def,
		value:    value,
		timeout:  timeout,
		lifespan: timeout,
	}
}

// ID returns the object's unique pool id.
func (o *Object) ID() int64 {
	return o.id
}

// Definition returns the resource definition the object was created from.
func (o *Object) Definition() definition.Definition {
	return o.def
}

// Value returns the object's payload.
func (o *Object) Value() any {
	return o.value
}

// IsAcquired reports whether a view currently holds the object.
func (o *Object) IsAcquired() bool {
	return o.acquired.Load()
}

// Acquire claims the object for a single view. Returns false if another view
// already holds it.
func (o *Object) Acquire() bool {
	return o.acquired.CompareAndSwap(false, true)
}

// Release returns the object to the pool and restores its timeout.
func (o *Object) Release() {
	o.resetTimeout()
	o.acquired.Store(false)
}

// Timeout returns the remaining frame boundaries before eviction.
func (o *Object) Timeout() int {
	return o.timeout
}

// ReservationCount returns the number of pending reservations.
func (o *Object) ReservationCount() int {
	o.resMu.Lock()
	defer o.resMu.Unlock()
	return len(o.reservations)
}

// IsConstant reports whether the object is pinned for the rest of the frame.
func (o *Object) IsConstant() bool {
	return o.constant.Load()
}

// SetConstant pins or unpins the object. A constant object cannot be
// reallocated until the flag is cleared at the frame boundary.
func (o *Object) SetConstant(constant bool) {
	o.constant.Store(constant)
}

// IsInspect reports whether some allocation attempt is currently inspecting
// the object. Scanning threads defer inspected objects instead of blocking.
func (o *Object) IsInspect() bool {
	return o.inspect.Load()
}

func (o *Object) startInspect() { o.inspect.Store(true) }
func (o *Object) endInspect()   { o.inspect.Store(false) }

// IsPrioritized reports whether the object is held as some thread's indirect
// fallback candidate and must not be displaced by another one.
func (o *Object) IsPrioritized() bool {
	return o.prioritized.Load()
}

func (o *Object) setPrioritized(p bool) { o.prioritized.Store(p) }

// isAvailable reports whether the object can be handed to a new view.
func (o *Object) isAvailable() bool {
	return !o.acquired.Load() && !o.constant.Load()
}

// allowCasual reports whether the object may be picked up by a pool scan.
func (o *Object) allowCasual() bool {
	return o.def.AllowCasualAllocation()
}

// Reserve marks the object as reserved at the given pass position for the
// remainder of the frame. Ignored when the definition forbids reservations.
func (o *Object) Reserve(pos timeline.Position) {
	if !o.def.AllowReservations() {
		return
	}
	o.resMu.Lock()
	o.reservations = append(o.reservations, pos)
	o.resMu.Unlock()
}

// ClaimReservation consumes a reservation made at exactly the given
// position. Returns true if one existed: the claiming pass is the one the
// object was reserved for.
func (o *Object) ClaimReservation(pos timeline.Position) bool {
	o.resMu.Lock()
	defer o.resMu.Unlock()
	for i, r := range o.reservations {
		if r == pos {
			o.reservations = append(o.reservations[:i], o.reservations[i+1:]...)
			return true
		}
	}
	return false
}

// IsReservedWithin reports whether any reservation may fall inside the given
// lifetime. Cross-thread reservations are counted conservatively.
func (o *Object) IsReservedWithin(lifetime *timeline.TimeFrame) bool {
	if lifetime == nil {
		return false
	}
	o.resMu.Lock()
	defer o.resMu.Unlock()
	for _, r := range o.reservations {
		if lifetime.Covers(r) {
			return true
		}
	}
	return false
}

// ClearReservations drops all reservations.
func (o *Object) ClearReservations() {
	o.resMu.Lock()
	o.reservations = nil
	o.resMu.Unlock()
}

func (o *Object) isReserved() bool {
	o.resMu.Lock()
	defer o.resMu.Unlock()
	return len(o.reservations) > 0
}

func (o *Object) resetTimeout() {
	o.timeout = o.lifespan
}

// tickTimeout advances the object's eviction countdown for one frame
// boundary. Acquired or reserved objects have their countdown restored
// instead. Ticks are keyed by the pool's frame epoch so that flushing twice
// at the same boundary decrements at most once. Returns false once the
// countdown is exhausted and the object should be disposed.
func (o *Object) tickTimeout(epoch uint64) bool {
	if o.lastTick == epoch {
		return true
	}
	o.lastTick = epoch
	if o.IsAcquired() || o.isReserved() {
		o.resetTimeout()
		return true
	}
	if o.timeout <= 0 {
		return false
	}
	o.timeout--
	return true
}

// dispose releases the payload through the definition. Safe to call once;
// later calls are no-ops.
func (o *Object) dispose(phase errors.Phase) error {
	if o.disposed {
		return nil
	}
	o.disposed = true
	o.acquired.Store(false)
	if err := o.def.Dispose(o.value); err != nil {
		return errors.Disposal(phase, o.id, err)
	}
	return nil
}

// entry is the pool table record: keyed by object id so the copy-on-write
// map never copies Object state.
type entry struct {
	id  int64
	obj *Object
}

func (e entry) GetKey() int64 {
	return e.id
}

func (e entry) ComputeSize() uint {
	return 16
}
