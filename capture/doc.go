// Package capture provides an observational sink for graph and pool
// lifecycle events.
//
// The graph and the object pool emit an Event for every declaration,
// reference, acquisition, release, reallocation, creation, reservation,
// disposal, and flush, plus per-frame counter values. Captures see what the
// engine did, never influence what it does; a nil capture is valid
// everywhere and costs one branch per event.
//
// Attach a capture to a graph and pool:
//
//	rec := capture.NewRecorder()
//	pool.SetCapture(rec)
//	list.SetCapture(rec)
//
// Or stream events into zap:
//
//	list.SetCapture(capture.NewLogCapture(logger))
//
// The Recorder accumulates events in memory and is the tool of choice for
// asserting allocation behavior in tests.
package capture
