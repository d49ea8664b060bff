// Package timeline models where events fall in a frame's execution order.
//
// A Position is a (thread, queue) coordinate: queue indices are assigned in
// declaration order on each worker thread, so positions on one thread are
// totally ordered while positions on different threads are not comparable.
//
// A TimeFrame is an interval on one thread's position axis, used to estimate
// how long a resource declaration stays live:
//
//	tf, _ := timeline.NewTimeFrame(timeline.Position{Thread: 0, Queue: 2}, 0)
//	tf.ExtendTo(timeline.Position{Thread: 0, Queue: 5}) // now covers 2..5
//	tf.ExtendTo(timeline.Position{Thread: 1, Queue: 0}) // degrades to async
//
// Because asynchronous execution order is not fully known ahead of time, the
// interval model is allowed to overestimate overlap but must never miss one:
// an object wrongly judged free could be mutated while a prior reader is
// still in flight. Overlap tests are therefore closed-interval, and a frame
// that has been extended across threads reports Covers(pos) == true for any
// position.
package timeline
