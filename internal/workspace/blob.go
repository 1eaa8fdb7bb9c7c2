package workspace

import "sync"

// Blob is a single named, mutable cell holding exactly one value at a time.
// Repeated writes overwrite the value in place. A Blob is created unset and
// stays alive until its owning workspace is released.
//
// The read/write lock exists so that control signals (such as a should-stop
// scalar) can be polled while another goroutine writes them. It does not
// order concurrent writers; see the package documentation.
type Blob struct {
	mu    sync.RWMutex
	value any
	set   bool
}

// Set overwrites the blob's value in place.
func (b *Blob) Set(v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = v
	b.set = true
}

// Get returns the blob's current value and whether it has ever been set.
func (b *Blob) Get() (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value, b.set
}

// IsSet reports whether the blob holds a value.
func (b *Blob) IsSet() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.set
}
