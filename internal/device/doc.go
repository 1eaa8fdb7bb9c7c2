// Package device abstracts execution streams and completion events.
//
// A Stream is a serially-ordered work queue bound to a device affinity. Work
// enqueued on an accelerator stream executes asynchronously with respect to
// the enqueuing goroutine; work enqueued on the host stream executes inline.
// An Event is a one-shot completion flag recorded on a producer's stream and
// waited on by consumer streams, giving point-to-point synchronization
// without a global barrier: waiting on an accelerator stream suspends only
// that stream, while waiting from the host blocks the calling goroutine.
//
// Event misuse (recording twice without a reset, waiting on an event that
// was never recorded for the current run) indicates a scheduler bug, not a
// runtime data condition, and panics.
package device
