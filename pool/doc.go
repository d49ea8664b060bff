// Package pool implements the reusable backing-object pool behind the
// framegraph's transient resources.
//
// A pooled Object is one concrete payload (a texture, a buffer, a queue)
// produced by a resource definition, together with the state that controls
// its reuse: acquisition, constancy, reservations, and an eviction
// countdown. The Map owns all objects and serves every allocation with
// exactly one of three mutually exclusive outcomes:
//
//  1. Specific allocation - the declaration's handle remembers the object it
//     was bound to last frame; if that object is still available and either
//     reserved for this pass or unreserved across the declaration's
//     lifetime, it is rebound directly.
//  2. Scan allocation - every available, casually-allocatable object whose
//     reservations do not overlap the lifetime is tried: the first direct
//     binding match wins immediately, the first indirect match is kept as a
//     fallback.
//  3. Creation - a fresh object is built from the definition.
//
// # Concurrency
//
// The object table is a copy-on-write structure (NonLockingReadMap):
// iteration works on a snapshot and never blocks inserts or removals. In
// concurrent mode each candidate is additionally protected by a per-object
// lock held only while testing or claiming it, plus an inspect flag that
// lets other scanning goroutines defer contended objects to a retry list
// instead of blocking on the lock. A thread that loses a race for its
// fallback candidate restarts its own allocation attempt, bounded by pool
// exhaustion into creation.
//
// Under pathological contention the retry list can keep deferring a thread
// whose candidates are continuously re-claimed by others; this is accepted
// behavior, not a bug to fix with fairness machinery.
//
// # Lifecycle
//
// Call NewFrame at the start of each frame, then FlushMap at the frame
// boundary: objects unused for more boundaries than their timeout are
// disposed, and the constant flag (which pins an object for one frame) is
// cleared on survivors. Cache/AllocateFromCache move objects into and out of
// a name-keyed side table surviving frame boundaries.
package pool
