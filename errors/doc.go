// Package errors provides structured error types for the framegraph library.
//
// Errors are categorized by Phase (which graph operation failed) and Kind
// (error category). The Error type carries the offending resource name, slot
// index, pooled object id, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAcquire, errors.KindIllegalState).
//		Name("shadow-map").
//		Slot(4).
//		Detail("object is already acquired").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseAcquire, "ticket points to empty slot %d", 3)
//	err := errors.Timeout(errors.PhaseWait, "resource unreachable after %s", d)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two errors match under errors.Is when their Phase and Kind agree, so
// callers can classify failures without string inspection:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseWait, Kind: errors.KindTimeout}) {
//		// retry next frame
//	}
//
// Every error produced by this library is a programming-contract violation
// and aborts the current frame's graph build; none of them are retried
// internally except the concurrent allocator's transient races, which never
// surface as errors.
package errors
