// Package framegraph provides transient-resource lifetime tracking and
// pooled allocation for frame-based execution graphs.
//
// A frame declares resources, wires consumers to producers through
// forwarding tickets, culls the work nobody reads, and resolves the
// survivors to concrete objects drawn from a reusable pool. At the frame
// boundary unused objects tick toward eviction and everything else resets
// for the next frame.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	framegraph/
//	├── graph/           Tickets, views, and the frame-local resource list
//	├── pool/            Reusable object pool with lock-minimized allocation
//	├── definition/      Resource definitions: creation, reuse, disposal policy
//	├── timeline/        Thread/queue positions and lifetime intervals
//	├── capture/         Lifecycle event observation for debugging and tests
//	├── errors/          Structured error types for debugging
//	└── cmd/fgmon/       Interactive monitor driving a synthetic workload
//
// # Quick Start
//
// Run one frame against a list:
//
//	list := graph.NewList(pool.NewMap())
//
//	list.BeginFrame(false)
//	ticket, err := list.Declare(pass, def, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	list.Reference(ticket, consumerPos)
//	list.CullUnreferenced()
//
//	value, err := list.Acquire(ticket)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	render(value)
//
//	list.Release(ticket) // once per reference, once for the producer
//	list.EndFrame()
//
// Keep the ticket and redeclare with it next frame: the pool recognizes the
// handle and reallocates the same backing object when it is still
// compatible.
//
// # Concurrency
//
// Opening a frame with BeginFrame(true) switches the pool to its concurrent
// allocation path: scans iterate copy-on-write snapshots, candidates are
// claimed under short per-object critical sections, and contended objects
// are deferred to a retry list rather than blocked on. Consumer threads
// synchronize on produced resources with WaitForResource.
//
// # Logging
//
// Each package carries its own zap logger, no-op by default:
//
//	graph.SetLogger(logger.Named("graph"))
//	pool.SetLogger(logger.Named("pool"))
//
// For finer-grained introspection, install a capture.Capture on the list to
// observe every declare, reference, allocate, and flush event.
package framegraph
