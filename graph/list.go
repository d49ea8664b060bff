package graph

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/framegraph/capture"
	"github.com/wippyai/framegraph/definition"
	"github.com/wippyai/framegraph/errors"
	"github.com/wippyai/framegraph/pool"
	"github.com/wippyai/framegraph/timeline"
)

// DefaultWaitTimeout bounds how long a consumer thread spins waiting for a
// resource another thread has not released yet.
const DefaultWaitTimeout = 5 * time.Second

// List tracks every resource declared during the current frame. Views live
// in a sparse slot table addressed by the world index tickets resolve to;
// slots are recycled within the frame as views are fully released.
//
// Declaration, referencing, culling, and release run on the frame thread.
// Acquire and WaitForResource may additionally run on consumer threads once
// the frame was opened in async mode.
type List struct {
	table *TicketTable
	pool  *pool.Map
	cache map[string]*pool.Object

	views    []*View
	nextSlot int

	async atomic.Bool

	futureMu   sync.Mutex
	futureRefs []futureRef

	waitTimeout time.Duration
	cap         capture.Capture
}

type futureRef struct {
	ticket Ticket
	pos    timeline.Position
}

// NewList creates a resource list backed by the given object pool.
func NewList(p *pool.Map) *List {
	return &List{
		table:       NewTicketTable(),
		pool:        p,
		cache:       make(map[string]*pool.Object),
		waitTimeout: DefaultWaitTimeout,
	}
}

// Table returns the ticket arena backing the list.
func (l *List) Table() *TicketTable { return l.table }

// Pool returns the object pool the list allocates from.
func (l *List) Pool() *pool.Map { return l.pool }

// SetCapture installs an event capture on the list and its pool.
func (l *List) SetCapture(c capture.Capture) {
	l.cap = c
	l.pool.SetCapture(c)
}

// SetWaitTimeout changes how long WaitForResource spins before giving up.
func (l *List) SetWaitTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.InvalidArgument(errors.PhaseWait, "wait timeout must be positive, got %v", d)
	}
	l.waitTimeout = d
	return nil
}

func (l *List) emit(e capture.Event) {
	if l.cap != nil {
		l.cap.OnGraphEvent(e)
	}
}

// Size returns the number of live views.
func (l *List) Size() int {
	n := 0
	for _, v := range l.views {
		if v != nil {
			n++
		}
	}
	return n
}

// CacheSize returns the number of objects parked in the named cache.
func (l *List) CacheSize() int { return len(l.cache) }

func (l *List) add(v *View) int {
	for i := l.nextSlot; i < len(l.views); i++ {
		if l.views[i] == nil {
			l.views[i] = v
			l.nextSlot = i + 1
			return i
		}
	}
	l.views = append(l.views, v)
	l.nextSlot = len(l.views)
	return len(l.views) - 1
}

func (l *List) remove(i int) {
	if i < 0 || i >= len(l.views) {
		return
	}
	if v := l.views[i]; v != nil && l.table.LocalIndex(v.ticket) == i {
		// the declaring ticket must stop resolving to the freed slot
		l.table.setLocalIndex(v.ticket, -1)
	}
	l.views[i] = nil
	if i < l.nextSlot {
		l.nextSlot = i
	}
}

func (l *List) locate(phase errors.Phase, t Ticket) (*View, error) {
	if t == 0 {
		return nil, errors.InvalidHandle(phase, "nil ticket")
	}
	i := l.table.WorldIndex(t)
	if i < 0 || i >= len(l.views) || l.views[i] == nil {
		b := errors.New(phase, errors.KindInvalidHandle)
		return nil, b.Name(l.table.Name(t)).Slot(i).Detail("ticket %d does not locate a declared resource", t).Build()
	}
	return l.views[i], nil
}

// Lookup returns the view the ticket resolves to.
func (l *List) Lookup(t Ticket) (*View, error) {
	return l.locate(errors.PhaseReference, t)
}

// Declare registers a new resource produced by producer under the given
// definition. A zero ticket allocates a fresh internal one; a caller ticket
// is rebound to the new slot while keeping the object id it saw last frame,
// which is what lets the pool hand the same object back.
func (l *List) Declare(producer Producer, def definition.Definition, t Ticket) (Ticket, error) {
	if t == 0 {
		t = l.table.createInternal(nil, fmt.Sprintf("%sres%d", ReservedPrefix, len(l.views)))
	} else if l.table.record(t) == nil {
		return 0, errors.InvalidHandle(errors.PhaseDeclare, "unknown ticket %d", t)
	}
	v := newView(l.table, t, 0, producer, def)
	v.index = l.add(v)
	l.table.setLocalIndex(t, v.index)
	l.emit(capture.Event{Type: capture.EventDeclare, Slot: v.index, Name: l.table.Name(t), Pos: v.ProducerPos()})
	return t, nil
}

// DeclareTemporary declares a resource that survives culling even with no
// consumers, for producer-side scratch state.
func (l *List) DeclareTemporary(producer Producer, def definition.Definition, t Ticket) (Ticket, error) {
	t, err := l.Declare(producer, def, t)
	if err != nil {
		return 0, err
	}
	l.views[l.table.LocalIndex(t)].setTemporary()
	return t, nil
}

// Reserve asks the pool to hold the object the ticket saw last frame for
// the producing pass at pos. Returns false when no prior object exists.
func (l *List) Reserve(t Ticket, pos timeline.Position) bool {
	id := l.table.ObjectID(t)
	if id < 0 {
		return false
	}
	return l.pool.Reserve(id, pos)
}

// ReserveAll reserves last frame's objects for every ticket that has one.
func (l *List) ReserveAll(tickets []Ticket, pos timeline.Position) {
	for _, t := range tickets {
		l.Reserve(t, pos)
	}
}

// Reference registers a consumer of the ticket's resource at pos. In async
// mode an unresolvable ticket is queued as a future reference instead of
// failing, since the declaring pass may not have run yet.
func (l *List) Reference(t Ticket, pos timeline.Position) error {
	v, err := l.locate(errors.PhaseReference, t)
	if err != nil {
		if l.async.Load() && l.table.record(t) != nil {
			l.futureMu.Lock()
			l.futureRefs = append(l.futureRefs, futureRef{ticket: t, pos: pos})
			l.futureMu.Unlock()
			return nil
		}
		return err
	}
	v.Reference(pos)
	l.emit(capture.Event{Type: capture.EventReference, Slot: v.index, Pos: pos, Name: l.table.Name(t)})
	return nil
}

// ReferenceOptional registers a consumer if the ticket resolves, reporting
// whether it did. Unresolvable tickets are not queued.
func (l *List) ReferenceOptional(t Ticket, pos timeline.Position) bool {
	v, err := l.locate(errors.PhaseReference, t)
	if err != nil {
		return false
	}
	v.Reference(pos)
	l.emit(capture.Event{Type: capture.EventReference, Slot: v.index, Pos: pos, Name: l.table.Name(t)})
	return true
}

// ReferenceAll registers a consumer for every ticket, stopping at the first
// failure.
func (l *List) ReferenceAll(tickets []Ticket, pos timeline.Position) error {
	for _, t := range tickets {
		if err := l.Reference(t, pos); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFutureReferences drains the queued async references. References
// whose tickets still resolve to nothing are reported together.
func (l *List) ApplyFutureReferences() error {
	l.futureMu.Lock()
	pending := l.futureRefs
	l.futureRefs = nil
	l.futureMu.Unlock()

	var errs error
	for _, fr := range pending {
		v, err := l.locate(errors.PhaseReference, fr.ticket)
		if err != nil {
			Logger().Warn("dropping unresolvable future reference",
				zap.String("name", l.table.Name(fr.ticket)),
				zap.Int("thread", fr.pos.Thread),
				zap.Int("queue", fr.pos.Queue))
			errs = multierr.Append(errs, err)
			continue
		}
		v.Reference(fr.pos)
		l.emit(capture.Event{Type: capture.EventReference, Slot: v.index, Pos: fr.pos, Name: l.table.Name(fr.ticket)})
	}
	return errs
}

// GetDefinition returns the definition the ticket's resource was declared
// with, or nil when the ticket does not resolve.
func (l *List) GetDefinition(t Ticket) definition.Definition {
	v, err := l.locate(errors.PhaseReference, t)
	if err != nil {
		return nil
	}
	return v.Definition()
}

// IsVirtual reports whether the ticket's resource still awaits a payload.
func (l *List) IsVirtual(t Ticket) bool {
	v, err := l.locate(errors.PhaseReference, t)
	return err == nil && v.IsVirtual()
}

// IsAsyncResource reports whether the ticket's resource crosses threads.
func (l *List) IsAsyncResource(t Ticket) bool {
	v, err := l.locate(errors.PhaseReference, t)
	return err == nil && v.Lifetime() != nil && v.Lifetime().Async()
}

// IsReadAvailable reports whether a consumer could claim the resource now.
func (l *List) IsReadAvailable(t Ticket) bool {
	v, err := l.locate(errors.PhaseReference, t)
	return err == nil && v.IsReadAvailable()
}

// SetUndefined marks the ticket's resource as deliberately empty.
func (l *List) SetUndefined(t Ticket) error {
	v, err := l.locate(errors.PhaseDeclare, t)
	if err != nil {
		return err
	}
	v.SetUndefined()
	l.emit(capture.Event{Type: capture.EventUndefined, Slot: v.index, Name: l.table.Name(t)})
	return nil
}

// SetUndefinedAll marks every ticket's resource as deliberately empty,
// stopping at the first unresolvable ticket.
func (l *List) SetUndefinedAll(tickets []Ticket) error {
	for _, t := range tickets {
		if err := l.SetUndefined(t); err != nil {
			return err
		}
	}
	return nil
}

// SetPrimitive stores a raw value under the ticket with no pooled backing.
func (l *List) SetPrimitive(t Ticket, value any) error {
	v, err := l.locate(errors.PhaseDeclare, t)
	if err != nil {
		return err
	}
	v.SetPrimitive(value)
	l.emit(capture.Event{Type: capture.EventValue, Slot: v.index, Name: l.table.Name(t)})
	return nil
}

// SetConstant pins the object backing the ticket's resource: its content
// survives across frames and only specific allocation may hand it out again.
func (l *List) SetConstant(t Ticket) error {
	v, err := l.locate(errors.PhaseDeclare, t)
	if err != nil {
		return err
	}
	obj := v.Object()
	if obj == nil {
		return errors.IllegalState(errors.PhaseDeclare,
			"resource %q holds no object to make constant", l.table.Name(t))
	}
	obj.SetConstant(true)
	l.emit(capture.Event{Type: capture.EventConstant, Slot: v.index, Object: obj.ID()})
	return nil
}

// SetConstantOptional pins the backing object if there is one, reporting
// whether it did.
func (l *List) SetConstantOptional(t Ticket) bool {
	return l.SetConstant(t) == nil
}

// WaitForResource blocks until read permission on the ticket's resource is
// claimed, yielding between attempts. Returns the resource value, or a
// timeout error when the holder never releases.
func (l *List) WaitForResource(t Ticket) (any, error) {
	deadline := time.Now().Add(l.waitTimeout)
	for {
		v, err := l.locate(errors.PhaseWait, t)
		if err != nil {
			return nil, err
		}
		if v.ClaimReadPermissions() {
			return v.Value(), nil
		}
		if time.Now().After(deadline) {
			return nil, errors.Timeout(errors.PhaseWait,
				"resource %q not released within %v", l.table.Name(t), l.waitTimeout)
		}
		runtime.Gosched()
	}
}

// Acquire resolves the ticket to a concrete value, allocating from the pool
// on first touch. The caller's ticket learns the object id so the same
// object can be requested next frame.
func (l *List) Acquire(t Ticket) (any, error) {
	v, err := l.locate(errors.PhaseAcquire, t)
	if err != nil {
		return nil, err
	}
	return l.acquire(t, v)
}

// AcquireOrElse resolves the ticket like Acquire, returning fallback when
// the ticket does not resolve or the resource was marked undefined.
func (l *List) AcquireOrElse(t Ticket, fallback any) (any, error) {
	v, err := l.locate(errors.PhaseAcquire, t)
	if err != nil || v.IsUndefined() {
		return fallback, nil
	}
	return l.acquire(t, v)
}

func (l *List) acquire(t Ticket, v *View) (any, error) {
	if !v.IsUsed() {
		return nil, errors.IllegalState(errors.PhaseAcquire,
			"resource %q was already fully released", l.table.Name(v.ticket))
	}
	if v.IsUndefined() {
		return nil, errors.Undefined(errors.PhaseAcquire, v.index)
	}
	if v.IsVirtual() {
		if err := l.pool.Allocate(v, l.async.Load()); err != nil {
			return nil, err
		}
	}
	if t != v.ticket {
		l.table.SetObjectID(t, l.table.ObjectID(v.ticket))
	}
	l.emit(capture.Event{Type: capture.EventAcquire, Slot: v.index, Object: l.table.ObjectID(v.ticket)})
	return v.Value(), nil
}

// AcquireCached pulls a previously cached object into the ticket's resource
// instead of allocating. On a cache miss the resource is marked undefined
// and a nil value is returned without error.
func (l *List) AcquireCached(t Ticket, key string) (any, error) {
	v, err := l.locate(errors.PhaseAcquire, t)
	if err != nil {
		return nil, err
	}
	if !v.IsVirtual() {
		return nil, errors.IllegalState(errors.PhaseAcquire,
			"resource %q already holds a value, cannot load from cache", l.table.Name(t))
	}
	ok, err := l.pool.AllocateFromCache(l.cache, v, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		v.SetUndefined()
		return nil, nil
	}
	if t != v.ticket {
		l.table.SetObjectID(t, l.table.ObjectID(v.ticket))
	}
	l.emit(capture.Event{Type: capture.EventAcquire, Slot: v.index, Object: l.table.ObjectID(v.ticket), Name: key})
	return v.Value(), nil
}

// Cache parks the object backing the ticket's resource under key so a later
// frame can retrieve it with AcquireCached. Virtual and primitive resources
// cannot be cached.
func (l *List) Cache(t Ticket, key string) error {
	v, err := l.locate(errors.PhaseCache, t)
	if err != nil {
		return err
	}
	if v.IsVirtual() || v.IsPrimitive() {
		return errors.IllegalState(errors.PhaseCache,
			"resource %q holds no pooled object to cache", l.table.Name(t))
	}
	if !l.pool.Cache(l.cache, v.Object().ID(), key) {
		b := errors.New(errors.PhaseCache, errors.KindNotFound)
		return b.Object(v.Object().ID()).Detail("object missing from pool").Build()
	}
	return nil
}

// Release drops one claim on the ticket's resource. When the producer's own
// claim is the last to go, the backing object returns to the pool, or is
// disposed outright for definitions that demand it, and the slot is freed.
func (l *List) Release(t Ticket) error {
	v, err := l.locate(errors.PhaseRelease, t)
	if err != nil {
		return err
	}
	v.Release()
	l.emit(capture.Event{Type: capture.EventRelease, Slot: v.index, Name: l.table.Name(t)})
	if v.IsUsed() {
		return nil
	}
	defer l.remove(v.index)
	obj := v.Object()
	if obj == nil {
		return nil
	}
	if def := v.Definition(); def != nil && def.DisposeOnRelease() {
		return l.pool.Dispose(v)
	}
	l.pool.Release(obj.ID())
	return nil
}

// ReleaseOptional drops one claim if the ticket resolves, reporting whether
// it did.
func (l *List) ReleaseOptional(t Ticket) bool {
	if _, err := l.locate(errors.PhaseRelease, t); err != nil {
		return false
	}
	return l.Release(t) == nil
}

// CullUnreferenced removes declared resources with no consumers and cascades
// through the passes that only existed to feed them: each unconsumed output
// dereferences its producer, and once a producer has no consumed outputs left
// its input references are retracted, its declared views are swept, and
// resources that drop to zero continue the wave. An unconsumed output of a
// pass that stays alive is kept; the pass releases it normally after
// executing. Returns the number of views removed.
func (l *List) CullUnreferenced() int {
	var queue []*View
	culled := 0

	for _, v := range l.views {
		if v != nil && !v.IsReferenced() && !v.IsTemporary() {
			queue = append(queue, v)
		}
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		p := v.Producer()
		if p == nil {
			l.remove(v.index)
			culled++
			continue
		}
		if p.Dereference() {
			// other outputs still consumed; the pass keeps this view and
			// releases it after executing
			continue
		}
		for _, in := range p.InputTickets() {
			iv, err := l.locate(errors.PhaseCull, in)
			if err != nil {
				continue
			}
			iv.Release()
			if !iv.IsReferenced() {
				queue = append(queue, iv)
			}
		}
		for _, out := range p.OutputTickets() {
			// a forwarding output resolves to another pass's view; only
			// views declared by this pass are swept
			if l.table.HasSource(out) {
				continue
			}
			if i := l.table.LocalIndex(out); i >= 0 && i < len(l.views) && l.views[i] != nil {
				l.remove(i)
				culled++
			}
		}
	}
	return culled
}

// Clear releases every remaining view's object back to the pool and resets
// the slot table. Tickets stay valid for the next frame.
func (l *List) Clear() {
	n := 0
	for i, v := range l.views {
		if v == nil {
			continue
		}
		if obj := v.Object(); obj != nil && !obj.IsConstant() {
			l.pool.Release(obj.ID())
		}
		if l.table.LocalIndex(v.ticket) == i {
			l.table.setLocalIndex(v.ticket, -1)
		}
		l.views[i] = nil
		n++
	}
	l.views = l.views[:0]
	l.nextSlot = 0
	l.futureMu.Lock()
	l.futureRefs = nil
	l.futureMu.Unlock()
	l.emit(capture.Event{Type: capture.EventClear, Count: n})
}

// BeginFrame opens a new frame, choosing between single-threaded and
// concurrent allocation for its duration, and advances the pool's epoch.
// Reservations are per-frame advisory state and do not carry over.
func (l *List) BeginFrame(async bool) {
	l.async.Store(async)
	l.pool.ClearReservations()
	l.pool.NewFrame()
}

// EndFrame closes the frame: leftover views are cleared, unused pooled
// objects tick toward eviction, and stale cache entries are flushed.
func (l *List) EndFrame() error {
	l.Clear()
	return multierr.Append(l.pool.FlushMap(), l.pool.FlushCache(l.cache))
}

// ClearReservations drops every reservation in the pool.
func (l *List) ClearReservations() {
	l.pool.ClearReservations()
}
