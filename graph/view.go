package graph

import (
	"sync/atomic"

	"github.com/wippyai/framegraph/definition"
	"github.com/wippyai/framegraph/errors"
	"github.com/wippyai/framegraph/pool"
	"github.com/wippyai/framegraph/timeline"
)

// Producer consumes and produces resources at a fixed timeline position.
// Views hold their producer so unreferenced declarations can cascade culling
// back through the passes that fed them.
type Producer interface {
	Owner

	// Position returns the producer's location on the timeline.
	Position() timeline.Position

	// Dereference drops one use of the producer and reports whether it is
	// still used afterward.
	Dereference() bool

	// InputTickets returns the tickets the producer reads.
	InputTickets() []Ticket

	// OutputTickets returns the tickets the producer declares.
	OutputTickets() []Ticket
}

// View is one frame-local declaration of a resource: the definition to
// satisfy, the estimated lifetime, the outstanding reference count, and
// eventually the pooled object or primitive value backing it.
//
// Reference counting is frame-thread-only; the released flag is the single
// field touched from consumer threads, which claim read access through it.
type View struct {
	table    *TicketTable
	ticket   Ticket
	index    int
	producer Producer
	def      definition.Definition
	lifetime *timeline.TimeFrame

	refs     int
	released atomic.Bool

	object    *pool.Object
	value     any
	primitive bool
	undefined bool
	temporary bool
}

func newView(table *TicketTable, ticket Ticket, index int, producer Producer, def definition.Definition) *View {
	v := &View{
		table:    table,
		ticket:   ticket,
		index:    index,
		producer: producer,
		def:      def,
	}
	if producer != nil {
		if tf, err := timeline.NewTimeFrame(producer.Position(), 0); err == nil {
			v.lifetime = &tf
		}
	}
	return v
}

// Ticket returns the declaring ticket.
func (v *View) Ticket() Ticket { return v.ticket }

// SlotIndex returns the slot the view occupies in its list.
func (v *View) SlotIndex() int { return v.index }

// Producer returns the pass that declared the resource, or nil.
func (v *View) Producer() Producer { return v.producer }

// ProducerPos returns the position of the declaring pass.
func (v *View) ProducerPos() timeline.Position {
	if v.producer == nil {
		return timeline.Position{}
	}
	return v.producer.Position()
}

// Definition returns the resource definition, nil for primitives.
func (v *View) Definition() definition.Definition { return v.def }

// Lifetime returns the view's estimated live interval, nil before the
// first reference when the view has no producer.
func (v *View) Lifetime() *timeline.TimeFrame { return v.lifetime }

// LastObjectID returns the pooled object id the view's ticket saw on a
// prior frame, or -1.
func (v *View) LastObjectID() int64 {
	return v.table.ObjectID(v.ticket)
}

// Reference registers a use at the given position and stretches the
// lifetime to cover it.
func (v *View) Reference(pos timeline.Position) {
	v.refs++
	if v.lifetime != nil {
		v.lifetime.ExtendTo(pos)
	}
}

// Refs returns the outstanding reference count.
func (v *View) Refs() int { return v.refs }

// Release drops one reference, marks the view released for the next
// claimant, and returns the remaining count. The count goes to -1 when the
// producer itself releases after every consumer has.
func (v *View) Release() int {
	v.refs--
	v.released.Store(true)
	return v.refs
}

// Merge folds other into this view: the combined reference count absorbs
// other's plus the reference other itself represented, and other is marked
// merged with a negative count. Lifetimes are unioned.
func (v *View) Merge(other *View) {
	v.refs += other.refs + 1
	other.refs = -1
	if v.lifetime != nil && other.lifetime != nil {
		v.lifetime.Merge(*other.lifetime)
	}
}

// IsReferenced reports whether any consumer references remain.
func (v *View) IsReferenced() bool { return v.refs > 0 }

// IsUsed reports whether the view still holds any claim, including the
// producer's own.
func (v *View) IsUsed() bool { return v.refs >= 0 }

// ClaimReadPermissions attempts to claim read access for a consumer.
// Concurrent-read resources only need the view to be released; exclusive
// resources additionally swap the released flag so one consumer holds it
// at a time.
func (v *View) ClaimReadPermissions() bool {
	if v.def == nil || v.def.ReadConcurrent() {
		return v.released.Load()
	}
	return v.released.CompareAndSwap(true, false)
}

// IsReadAvailable reports whether a read claim would currently succeed,
// without consuming it.
func (v *View) IsReadAvailable() bool {
	return v.released.Load()
}

// BindObject binds the pooled object and its accepted payload to the view.
// The object must be acquirable; a lost race returns an illegal state error.
func (v *View) BindObject(obj *pool.Object, value any) error {
	if !obj.Acquire() {
		return errors.IllegalState(errors.PhaseAcquire, "object %d already acquired", obj.ID())
	}
	v.object = obj
	v.value = value
	v.primitive = false
	v.undefined = false
	v.table.SetObjectID(v.ticket, obj.ID())
	return nil
}

// Object returns the pooled object backing the view, or nil.
func (v *View) Object() *pool.Object { return v.object }

// Value returns the payload the view resolved to.
func (v *View) Value() any { return v.value }

// SetPrimitive stores a raw value with no pooled backing. Primitive views
// are never allocated, released to the pool, or cached.
func (v *View) SetPrimitive(value any) {
	v.value = value
	v.object = nil
	v.primitive = true
	v.undefined = false
	v.released.Store(true)
}

// IsPrimitive reports whether the view holds a raw value.
func (v *View) IsPrimitive() bool { return v.primitive }

// SetUndefined marks the view as deliberately holding nothing. Allocation
// attempts against an undefined view fail.
func (v *View) SetUndefined() {
	v.undefined = true
	v.object = nil
	v.value = nil
	v.primitive = false
}

// IsUndefined reports whether the view was marked undefined.
func (v *View) IsUndefined() bool { return v.undefined }

// IsVirtual reports whether the view still awaits a concrete payload.
func (v *View) IsVirtual() bool {
	return v.object == nil && !v.primitive && !v.undefined
}

// IsTemporary reports whether the view survives culling without consumers.
func (v *View) IsTemporary() bool { return v.temporary }

func (v *View) setTemporary() { v.temporary = true }
