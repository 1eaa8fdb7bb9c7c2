// Package registry provides a typed, string-keyed factory registry.
//
// Registries are populated once at process start (before first use) and are
// read-only afterwards; there is no teardown. Registering a duplicate key is
// a programmer error and panics.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry maps string keys to values of type T, typically factory entries.
type Registry[T any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]T
}

// New creates an empty registry. The kind string names what the registry
// holds and appears in panic and log messages.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, entries: make(map[string]T)}
}

// Register adds an entry under the given key. Duplicate registration is a
// fatal construction error.
func (r *Registry[T]) Register(key string, entry T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		panic(fmt.Sprintf("%s %q already registered", r.kind, key))
	}
	slog.Debug("Registering entry.", "kind", r.kind, "key", key)
	r.entries[key] = entry
}

// Get looks up the entry registered under key.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	return entry, ok
}

// Keys returns all registered keys in sorted order.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
