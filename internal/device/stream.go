package device

import (
	"fmt"
	"sync"
)

// Stream is a serially-ordered work queue. All launch entry points return
// quickly; only Synchronize and a host-side Wait block the caller.
type Stream interface {
	// Affinity identifies the device this stream serves.
	Affinity() Affinity
	// Enqueue schedules fn after all previously enqueued work. The name is
	// carried for error attribution. On the host stream fn runs inline.
	Enqueue(name string, fn func() error)
	// Record transitions ev to Recorded and arranges for it to fire once all
	// work enqueued on this stream so far has completed.
	Record(ev *Event)
	// Wait orders all subsequently enqueued work after ev fires. On the host
	// stream this blocks the calling goroutine until ev fires.
	Wait(ev *Event)
	// Synchronize blocks until the stream has drained and returns the first
	// error produced by enqueued work since the last Synchronize.
	Synchronize() error
}

// hostStream runs everything inline on the calling goroutine. It exists so
// host-affine chains and the final network synchronization share the Stream
// contract with accelerator streams.
type hostStream struct {
	mu  sync.Mutex
	err error
}

func (s *hostStream) Affinity() Affinity { return HostAffinity }

func (s *hostStream) Enqueue(name string, fn func() error) {
	if err := fn(); err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = fmt.Errorf("op %q: %w", name, err)
		}
		s.mu.Unlock()
	}
}

func (s *hostStream) Record(ev *Event) {
	ev.markRecorded()
	ev.fire()
}

// Wait on the host blocks the calling goroutine: a waiting context with no
// device stream performs a host-blocking synchronization.
func (s *hostStream) Wait(ev *Event) {
	if ev.IsHost() {
		return
	}
	ch := ev.waitChan()
	<-ch
	ev.clearOutstanding()
}

func (s *hostStream) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// accelStream is the device-backed implementation: a dedicated goroutine
// drains a FIFO of closures, so enqueued work runs asynchronously with
// respect to the scheduler and strictly in launch order.
type accelStream struct {
	aff    Affinity
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	err    error
}

func newAccelStream(a Affinity) *accelStream {
	s := &accelStream{aff: a}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

func (s *accelStream) loop() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		task()
	}
}

func (s *accelStream) push(task func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		panic("device: enqueue on closed stream")
	}
	s.queue = append(s.queue, task)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *accelStream) Affinity() Affinity { return s.aff }

func (s *accelStream) Enqueue(name string, fn func() error) {
	s.push(func() {
		if err := fn(); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = fmt.Errorf("op %q: %w", name, err)
			}
			s.mu.Unlock()
		}
	})
}

func (s *accelStream) Record(ev *Event) {
	// The recorded flag flips in issue order so consumers that become ready
	// afterwards see a recorded event; the channel fires when the stream
	// reaches this point in its queue.
	ev.markRecorded()
	s.push(ev.fire)
}

// Wait suspends only this stream until ev fires; the host is not blocked.
func (s *accelStream) Wait(ev *Event) {
	if ev.IsHost() {
		return
	}
	ch := ev.waitChan()
	s.push(func() { <-ch })
	ev.clearOutstanding()
}

func (s *accelStream) Synchronize() error {
	done := make(chan struct{})
	s.push(func() { close(done) })
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// close drains the queue and stops the stream goroutine.
func (s *accelStream) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}
