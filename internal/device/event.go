package device

import "sync"

// Event is a one-shot completion flag tied to the sink node of a chain.
//
// Per run the state machine is: Empty -> Recorded -> (waited any number of
// times) -> Reset at the start of the next run. The recorded flag flips the
// moment Record is issued on a stream; the fired channel closes when the
// recording stream actually reaches that point in its queue. Events for
// host-affine nodes are inert: host work is complete by the time its launch
// returns, so waiting on such an event is a no-op.
type Event struct {
	mu          sync.Mutex
	host        bool
	fired       chan struct{}
	recorded    bool
	outstanding bool
}

// NewEvent creates an empty event for a node with the given affinity.
func NewEvent(a Affinity) *Event {
	return &Event{host: a.IsHost(), fired: make(chan struct{})}
}

// Reset returns the event to the Empty state. Called by the scheduler at the
// start of every network run; an event must never be waited on across runs
// without an intervening reset.
func (e *Event) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorded = false
	e.outstanding = false
	e.fired = make(chan struct{})
}

// Recorded reports whether Record has been issued since the last Reset.
func (e *Event) Recorded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recorded
}

// Outstanding reports whether the event still needs a host-side wait before
// the enclosing network run may return.
func (e *Event) Outstanding() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outstanding
}

// markRecorded transitions Empty -> Recorded. Double recording without a
// reset is a dependency-graph bug.
func (e *Event) markRecorded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recorded {
		panic("device: event recorded twice without reset")
	}
	e.recorded = true
	e.outstanding = !e.host
}

// fire closes the completion channel. Executed by the recording stream once
// all work enqueued before the record point has finished.
func (e *Event) fire() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.fired:
	default:
		close(e.fired)
	}
}

// waitChan returns the channel a consumer blocks on. Waiting on an event
// that was never recorded for this run would deadlock, so it panics instead.
func (e *Event) waitChan() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.recorded {
		panic("device: wait on event that was not recorded for this run")
	}
	return e.fired
}

// clearOutstanding marks the event as host-synchronized.
func (e *Event) clearOutstanding() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outstanding = false
}

// IsHost reports whether the event belongs to a host-affine node.
func (e *Event) IsHost() bool {
	return e.host
}
