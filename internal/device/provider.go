package device

import (
	"sync"
)

// Provider owns the streams of one plan execution. Streams are created
// lazily, one per affinity, and shared by every network in the plan.
type Provider struct {
	mu    sync.Mutex
	host  hostStream
	accel map[int]*accelStream
}

// NewProvider creates an empty stream provider.
func NewProvider() *Provider {
	return &Provider{accel: make(map[int]*accelStream)}
}

// Stream returns the stream serving the given affinity, creating it on first
// use. All nodes sharing an affinity share a stream.
func (p *Provider) Stream(a Affinity) Stream {
	if a.IsHost() {
		return &p.host
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.accel[a.Ordinal]
	if !ok {
		s = newAccelStream(a)
		p.accel[a.Ordinal] = s
	}
	return s
}

// Host returns the shared host stream.
func (p *Provider) Host() Stream {
	return &p.host
}

// SynchronizeAll drains every stream created so far and returns the first
// error any of them collected.
func (p *Provider) SynchronizeAll() error {
	p.mu.Lock()
	streams := make([]Stream, 0, len(p.accel)+1)
	for _, s := range p.accel {
		streams = append(streams, s)
	}
	p.mu.Unlock()
	streams = append(streams, &p.host)

	var first error
	for _, s := range streams {
		if err := s.Synchronize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close stops all accelerator stream goroutines after draining their queues.
// The provider must not be used afterwards.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.accel {
		s.close()
	}
}
