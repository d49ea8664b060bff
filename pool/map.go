package pool

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/launix-de/NonLockingReadMap"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/framegraph/capture"
	"github.com/wippyai/framegraph/definition"
	"github.com/wippyai/framegraph/errors"
	"github.com/wippyai/framegraph/timeline"
)

// DefaultStaticTimeout is the number of frame boundaries an unused object
// survives before eviction, unless its definition overrides it.
const DefaultStaticTimeout = 1

// Resource is the allocation target the pool binds objects to: one
// frame-local declaration awaiting a backing payload. Implemented by
// graph.View.
type Resource interface {
	// IsUndefined reports whether the declaration was explicitly marked as
	// holding no resource. Undefined resources cannot be allocated.
	IsUndefined() bool

	// Definition returns the resource definition to satisfy.
	Definition() definition.Definition

	// Lifetime returns the declaration's estimated live interval.
	Lifetime() *timeline.TimeFrame

	// LastObjectID returns the id of the object this declaration's handle
	// saw last frame, or a negative value. Used for specific allocation.
	LastObjectID() int64

	// ProducerPos returns the position of the declaring pass, used to
	// self-claim reservations.
	ProducerPos() timeline.Position

	// SlotIndex returns the declaration's slot index, for event capture.
	SlotIndex() int

	// BindObject binds the declaration to obj with the payload accepted by
	// its definition. The implementation must acquire obj.
	BindObject(obj *Object, value any) error
}

// Map owns every pooled Object and decides, per allocation, whether a
// declaration reuses an existing object or gets a new one.
//
// The object table is a copy-on-write map: scans iterate a snapshot without
// locks while other goroutines insert and remove. Individual objects are
// guarded by their own short-lived critical sections; the map itself has no
// global lock.
type Map struct {
	objects NonLockingReadMap.NonLockingReadMap[entry, int64]

	nextID        atomic.Int64
	epoch         atomic.Uint64
	staticTimeout int
	cap           capture.Capture

	// per-frame statistics, reset by NewFrame
	totalAllocations      atomic.Int64
	officialReservations  atomic.Int64
	completedReservations atomic.Int64
	failedReservations    atomic.Int64
	objectsCreated        atomic.Int64
	objectsReallocated    atomic.Int64
	totalObjects          atomic.Int64
	flushedObjects        atomic.Int64
}

// NewMap creates an empty object pool.
func NewMap() *Map {
	m := &Map{
		objects:       NonLockingReadMap.New[entry, int64](),
		staticTimeout: DefaultStaticTimeout,
	}
	m.epoch.Store(1)
	return m
}

// SetCapture attaches an observational event sink. Pass nil to detach.
func (m *Map) SetCapture(c capture.Capture) {
	m.cap = c
}

// SetStaticTimeout sets the default number of frame boundaries an object can
// experience without being used before disposal. Definitions with a
// non-negative StaticTimeout override it per object.
func (m *Map) SetStaticTimeout(timeout int) error {
	if timeout < 0 {
		return errors.InvalidArgument(errors.PhaseAllocate, "static timeout cannot be negative: %d", timeout)
	}
	m.staticTimeout = timeout
	return nil
}

// StaticTimeout returns the default eviction timeout.
func (m *Map) StaticTimeout() int {
	return m.staticTimeout
}

func (m *Map) emit(e capture.Event) {
	if m.cap != nil {
		m.cap.OnGraphEvent(e)
	}
}

func (m *Map) get(id int64) *Object {
	if e := m.objects.Get(id); e != nil {
		return e.obj
	}
	return nil
}

func (m *Map) put(obj *Object) {
	m.objects.Set(&entry{id: obj.id, obj: obj})
}

func (m *Map) remove(id int64) *Object {
	if e := m.objects.Remove(id); e != nil {
		return e.obj
	}
	return nil
}

// Size returns the number of objects currently pooled.
func (m *Map) Size() int {
	return len(m.objects.GetAll())
}

// Get returns the pooled object with the given id, or nil.
func (m *Map) Get(id int64) *Object {
	return m.get(id)
}

// Objects returns a snapshot of every pooled object, ordered by id.
func (m *Map) Objects() []*Object {
	entries := m.objects.GetAll()
	objs := make([]*Object, 0, len(entries))
	for _, e := range entries {
		objs = append(objs, e.obj)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].id < objs[j].id })
	return objs
}

func (m *Map) create(def definition.Definition) *Object {
	obj := newObject(m.nextID.Add(1), def, def.CreateResource(), m.staticTimeout)
	obj.lastTick = m.epoch.Load()
	m.put(obj)
	return obj
}

func typeName(value any) string {
	return fmt.Sprintf("%T", value)
}

// Allocate binds a backing object to the resource: a specific object the
// resource's handle remembers, any compatible pooled object found by scan,
// or a newly created one. Exactly one of those outcomes occurs.
//
// With concurrent set, per-object locking is used so multiple goroutines may
// allocate from the same pool; otherwise the lock-free single-threaded path
// runs.
func (m *Map) Allocate(res Resource, concurrent bool) error {
	if concurrent {
		return m.allocateConcurrent(res)
	}
	return m.allocateSync(res)
}

func (m *Map) allocateSync(res Resource) error {
	def, err := m.beginAllocate(res)
	if err != nil {
		return err
	}
	if def.UseExisting() {
		if ok, err := m.allocateSpecificSync(res, def); err != nil || ok {
			return err
		}
		// scan for a reusable object; first direct match wins, first
		// indirect match is kept as fallback
		var indirectObj *Object
		var indirectVal any
		for _, e := range m.objects.GetAll() {
			obj := e.obj
			if !obj.isAvailable() || !obj.allowCasual() || obj.IsReservedWithin(res.Lifetime()) {
				continue
			}
			if v := definition.ApplyDirect(def, obj.value); v != nil {
				return m.bindReallocated(res, obj, v)
			}
			if indirectObj == nil {
				if v := definition.ApplyIndirect(def, obj.value); v != nil {
					indirectObj, indirectVal = obj, v
				}
			}
		}
		if indirectObj != nil {
			return m.bindReallocated(res, indirectObj, indirectVal)
		}
	}
	return m.bindCreated(res, def)
}

func (m *Map) allocateSpecificSync(res Resource, def definition.Definition) (bool, error) {
	id := res.LastObjectID()
	if id < 0 {
		return false, nil
	}
	if obj := m.get(id); obj != nil {
		m.emit(capture.Event{Type: capture.EventAttemptReallocate, Slot: res.SlotIndex(), Object: id})
		if obj.isAvailable() && (obj.ClaimReservation(res.ProducerPos()) || !obj.IsReservedWithin(res.Lifetime())) {
			// the remembered object is only applied if the definition
			// accepts it
			v := definition.ApplyDirect(def, obj.value)
			if v == nil {
				v = definition.ApplyIndirect(def, obj.value)
			}
			if v != nil {
				if err := m.bindReallocated(res, obj, v); err != nil {
					return false, err
				}
				m.completedReservations.Add(1)
				return true, nil
			}
		}
	}
	m.failedReservations.Add(1)
	return false, nil
}

func (m *Map) allocateConcurrent(res Resource) error {
	def, err := m.beginAllocate(res)
	if err != nil {
		return err
	}
	return m.allocateConcurrentRetry(res, def)
}

func (m *Map) allocateConcurrentRetry(res Resource, def definition.Definition) error {
	if def.UseExisting() {
		if ok, err := m.allocateSpecificConcurrent(res, def); err != nil || ok {
			return err
		}
		var indirectObj *Object
		var indirectVal any
		snapshot := m.objects.GetAll()
		var skipped []*Object
		i := 0
		for i < len(snapshot) || len(skipped) > 0 {
			var obj *Object
			next := i < len(snapshot)
			if next {
				obj = snapshot[i].obj
				i++
			} else {
				obj = skipped[0]
				skipped = skipped[1:]
			}
			if !obj.isAvailable() || !obj.allowCasual() {
				continue
			}
			if (next || len(skipped) > 0) && obj.IsInspect() {
				// another thread is inspecting this object: try other
				// candidates first instead of waiting on its lock
				skipped = append(skipped, obj)
				continue
			}
			obj.mu.Lock()
			// the thread we would have waited on may have claimed the
			// object, so check again under the lock
			if !obj.isAvailable() {
				obj.mu.Unlock()
				continue
			}
			obj.startInspect()
			if !obj.IsReservedWithin(res.Lifetime()) {
				if v := definition.ApplyDirect(def, obj.value); v != nil {
					err := m.bindReallocated(res, obj, v)
					obj.endInspect()
					obj.mu.Unlock()
					return err
				}
				if !obj.IsPrioritized() && indirectObj == nil {
					if v := definition.ApplyIndirect(def, obj.value); v != nil {
						indirectObj, indirectVal = obj, v
						// keep other threads from picking the same
						// fallback candidate
						obj.setPrioritized(true)
						obj.endInspect()
						obj.mu.Unlock()
						continue
					}
				}
			}
			obj.endInspect()
			obj.mu.Unlock()
		}
		if indirectObj != nil {
			indirectObj.mu.Lock()
			indirectObj.setPrioritized(false)
			if indirectObj.isAvailable() {
				indirectObj.startInspect()
				err := m.bindReallocated(res, indirectObj, indirectVal)
				indirectObj.endInspect()
				indirectObj.mu.Unlock()
				return err
			}
			indirectObj.mu.Unlock()
			// another thread stole the fallback between the scan and the
			// lock; start this allocation over
			return m.allocateConcurrentRetry(res, def)
		}
	}
	return m.bindCreated(res, def)
}

func (m *Map) allocateSpecificConcurrent(res Resource, def definition.Definition) (bool, error) {
	id := res.LastObjectID()
	if id < 0 {
		return false, nil
	}
	if obj := m.get(id); obj != nil {
		m.emit(capture.Event{Type: capture.EventAttemptReallocate, Slot: res.SlotIndex(), Object: id})
		if obj.isAvailable() {
			obj.mu.Lock()
			obj.startInspect()
			if obj.isAvailable() && (obj.ClaimReservation(res.ProducerPos()) || !obj.IsReservedWithin(res.Lifetime())) {
				v := definition.ApplyDirect(def, obj.value)
				if v == nil {
					v = definition.ApplyIndirect(def, obj.value)
				}
				if v != nil {
					err := m.bindReallocated(res, obj, v)
					obj.endInspect()
					obj.mu.Unlock()
					if err != nil {
						return false, err
					}
					m.completedReservations.Add(1)
					return true, nil
				}
			}
			obj.endInspect()
			obj.mu.Unlock()
		}
	}
	m.failedReservations.Add(1)
	return false, nil
}

func (m *Map) beginAllocate(res Resource) (definition.Definition, error) {
	if res.IsUndefined() {
		return nil, errors.Undefined(errors.PhaseAllocate, res.SlotIndex())
	}
	def := res.Definition()
	if def == nil {
		return nil, errors.IllegalState(errors.PhaseAllocate, "resource definition cannot be nil in this context")
	}
	m.totalAllocations.Add(1)
	return def, nil
}

func (m *Map) bindReallocated(res Resource, obj *Object, value any) error {
	if err := res.BindObject(obj, value); err != nil {
		return err
	}
	m.emit(capture.Event{Type: capture.EventReallocate, Slot: res.SlotIndex(), Object: obj.id, Name: typeName(value)})
	m.objectsReallocated.Add(1)
	return nil
}

func (m *Map) bindCreated(res Resource, def definition.Definition) error {
	obj := m.create(def)
	if err := res.BindObject(obj, obj.value); err != nil {
		m.remove(obj.id)
		return err
	}
	m.emit(capture.Event{Type: capture.EventCreate, Slot: res.SlotIndex(), Object: obj.id, Name: typeName(obj.value)})
	m.objectsCreated.Add(1)
	return nil
}

// AllocateFromCache moves the object cached at key into the pool and binds
// it to the resource. Since this is not a true reallocation, the definition
// is not asked for permission; the caller is expected to know the types.
func (m *Map) AllocateFromCache(cache map[string]*Object, res Resource, key string) (bool, error) {
	obj, ok := cache[key]
	if !ok {
		return false, nil
	}
	delete(cache, key)
	if err := res.BindObject(obj, obj.value); err != nil {
		return false, err
	}
	m.put(obj)
	return true, nil
}

// Reserve marks the object with the given id as reserved at the pass
// position. A reservation keeps scan allocation from handing the object to
// declarations whose lifetime overlaps it, for the remainder of the frame.
// It is advisory: specific allocation may still bypass it once the reserving
// view releases. Returns true if the object exists.
func (m *Map) Reserve(objectID int64, pos timeline.Position) bool {
	if obj := m.get(objectID); obj != nil {
		obj.Reserve(pos)
		m.officialReservations.Add(1)
		m.emit(capture.Event{Type: capture.EventReserve, Object: objectID, Pos: pos})
		return true
	}
	return false
}

// Dispose removes and disposes the object the resource's handle points at.
func (m *Map) Dispose(res Resource) error {
	id := res.LastObjectID()
	if id < 0 {
		return nil
	}
	if obj := m.remove(id); obj != nil {
		m.emit(capture.Event{Type: capture.EventDispose, Object: id})
		return obj.dispose(errors.PhaseRelease)
	}
	return nil
}

// Release returns the object with the given id to the pool.
func (m *Map) Release(objectID int64) {
	if obj := m.get(objectID); obj != nil {
		obj.Release()
		m.emit(capture.Event{Type: capture.EventReleaseObject, Object: objectID})
	}
}

// Cache removes the object from the live pool into the name-keyed side
// table, for reuse across the frame boundary. The object can no longer be
// reserved, so its reservations are stripped. Returns true if the object
// existed.
func (m *Map) Cache(cache map[string]*Object, objectID int64, key string) bool {
	if obj := m.remove(objectID); obj != nil {
		cache[key] = obj
		obj.ClearReservations()
		obj.Release()
		return true
	}
	return false
}

// NewFrame resets the per-frame statistics and advances the flush epoch.
// Call once per rendering frame, before any allocation.
func (m *Map) NewFrame() {
	m.epoch.Add(1)
	m.totalAllocations.Store(0)
	m.officialReservations.Store(0)
	m.completedReservations.Store(0)
	m.failedReservations.Store(0)
	m.objectsCreated.Store(0)
	m.objectsReallocated.Store(0)
	m.flushedObjects.Store(0)
}

// ClearReservations clears reservations on every pooled object.
func (m *Map) ClearReservations() {
	for _, e := range m.objects.GetAll() {
		e.obj.ClearReservations()
	}
}

// FlushMap evicts objects that have gone unused for more frame boundaries
// than their timeout allows, and clears constant flags on the survivors
// (constancy only holds for one frame). Flushing twice at the same frame
// boundary disposes nothing additional the second time.
func (m *Map) FlushMap() error {
	snapshot := m.objects.GetAll()
	m.totalObjects.Store(int64(len(snapshot)))
	m.emit(capture.Event{Type: capture.EventFlush, Count: len(snapshot)})

	var errs error
	epoch := m.epoch.Load()
	for _, e := range snapshot {
		obj := e.obj
		if !obj.tickTimeout(epoch) {
			m.emit(capture.Event{Type: capture.EventDispose, Object: obj.id})
			errs = multierr.Append(errs, obj.dispose(errors.PhaseClear))
			m.remove(obj.id)
			m.flushedObjects.Add(1)
			continue
		}
		obj.SetConstant(false)
	}

	m.emit(capture.Event{Type: capture.EventValue, Name: "totalAllocations", Count: int(m.totalAllocations.Load())})
	m.emit(capture.Event{Type: capture.EventValue, Name: "officialReservations", Count: int(m.officialReservations.Load())})
	m.emit(capture.Event{Type: capture.EventValue, Name: "completedReservations", Count: int(m.completedReservations.Load())})
	m.emit(capture.Event{Type: capture.EventValue, Name: "failedReservations", Count: int(m.failedReservations.Load())})
	m.emit(capture.Event{Type: capture.EventValue, Name: "objectsCreated", Count: int(m.objectsCreated.Load())})
	m.emit(capture.Event{Type: capture.EventValue, Name: "objectsReallocated", Count: int(m.objectsReallocated.Load())})
	m.emit(capture.Event{Type: capture.EventValue, Name: "flushedObjects", Count: int(m.flushedObjects.Load())})

	return errs
}

// FlushCache runs timeout eviction over a named object cache.
func (m *Map) FlushCache(cache map[string]*Object) error {
	var errs error
	epoch := m.epoch.Load()
	for key, obj := range cache {
		if !obj.tickTimeout(epoch) {
			m.emit(capture.Event{Type: capture.EventDispose, Object: obj.id})
			errs = multierr.Append(errs, obj.dispose(errors.PhaseClear))
			delete(cache, key)
			m.flushedObjects.Add(1)
		}
	}
	return errs
}

// ClearMap disposes every pooled object and empties the pool.
func (m *Map) ClearMap() error {
	var errs error
	for _, e := range m.objects.GetAll() {
		m.emit(capture.Event{Type: capture.EventDispose, Object: e.obj.id})
		errs = multierr.Append(errs, e.obj.dispose(errors.PhaseClear))
		m.remove(e.obj.id)
	}
	if errs != nil {
		Logger().Warn("pool teardown reported disposal failures", zap.Error(errs))
	}
	return errs
}

// Per-frame statistics, valid until the next NewFrame.

// TotalAllocations returns the number of allocations this frame.
func (m *Map) TotalAllocations() int { return int(m.totalAllocations.Load()) }

// OfficialReservations returns the number of Reserve calls this frame.
func (m *Map) OfficialReservations() int { return int(m.officialReservations.Load()) }

// CompletedReservations returns how many specific allocations succeeded this
// frame.
func (m *Map) CompletedReservations() int { return int(m.completedReservations.Load()) }

// FailedReservations returns how many specific allocations fell through to a
// scan this frame.
func (m *Map) FailedReservations() int { return int(m.failedReservations.Load()) }

// ObjectsCreated returns the number of objects created this frame.
func (m *Map) ObjectsCreated() int { return int(m.objectsCreated.Load()) }

// ObjectsReallocated returns the number of objects reused this frame.
func (m *Map) ObjectsReallocated() int { return int(m.objectsReallocated.Load()) }

// TotalObjects returns the number of objects present before the last flush.
func (m *Map) TotalObjects() int { return int(m.totalObjects.Load()) }

// FlushedObjects returns the number of objects disposed by the last flush.
func (m *Map) FlushedObjects() int { return int(m.flushedObjects.Load()) }
