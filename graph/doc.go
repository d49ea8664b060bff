// Package graph tracks the frame-local lifecycle of transient resources:
// declaration, reference counting, culling, acquisition, and release.
//
// # Tickets
//
// A Ticket is a small arena handle that stays valid across frames while a
// resource's slot changes every frame. Tickets may forward to other tickets
// as their source; resolution follows the chain to a world index, which is
// how a pass reads a resource another pass declared without holding any
// direct reference. A ticket also remembers the id of the pooled object it
// was last bound to, which lets the pool hand the same object back on the
// next frame.
//
// # Views
//
// Each declaration produces a View: the definition to satisfy, the
// estimated lifetime interval, the outstanding reference count, and
// eventually the pooled object or primitive value backing it. Views live in
// the List's sparse slot table and their slots are recycled within a frame.
//
// # Frame shape
//
//	list.BeginFrame(async)
//	t, _ := list.Declare(pass, def, t)      // declaration phase
//	list.Reference(t, consumerPos)          // ...
//	list.CullUnreferenced()                 // drop unconsumed work
//	v, _ := list.Acquire(t)                 // execution phase
//	list.Release(t)                         // once per claim
//	list.EndFrame()                         // clear, flush, evict
//
// Declaration, referencing, and culling are frame-thread operations. When a
// frame is opened in async mode, Acquire and WaitForResource may also be
// called from consumer threads; cross-thread reads synchronize through the
// view's released flag.
package graph
