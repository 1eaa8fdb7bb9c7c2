package workspace

import (
	"sort"
	"sync"
)

// Workspace is a mapping from blob names to Blob cells, with an optional
// parent workspace consulted on lookup misses.
type Workspace struct {
	mu     sync.RWMutex
	blobs  map[string]*Blob
	shared *Workspace
}

// New creates an empty root workspace.
func New() *Workspace {
	return &Workspace{blobs: make(map[string]*Blob)}
}

// NewChild creates a workspace whose lookups fall back to w. Blob creation in
// the child is always local, shadowing any parent blob of the same name.
func (w *Workspace) NewChild() *Workspace {
	return &Workspace{blobs: make(map[string]*Blob), shared: w}
}

// CreateBlob returns the local blob with the given name, creating it if it
// does not exist locally. Creation is idempotent and never consults the
// parent: a child that creates a name a parent also holds shadows it.
func (w *Workspace) CreateBlob(name string) *Blob {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.blobs[name]; ok {
		return b
	}
	b := &Blob{}
	w.blobs[name] = b
	return b
}

// GetBlob returns the blob with the given name, consulting the parent chain
// on a local miss. It returns nil if no workspace in the chain holds the name.
func (w *Workspace) GetBlob(name string) *Blob {
	w.mu.RLock()
	b, ok := w.blobs[name]
	w.mu.RUnlock()
	if ok {
		return b
	}
	if w.shared != nil {
		return w.shared.GetBlob(name)
	}
	return nil
}

// HasBlob reports whether the name resolves in this workspace or any parent.
func (w *Workspace) HasBlob(name string) bool {
	return w.GetBlob(name) != nil
}

// LocalBlobs returns the sorted names of blobs owned by this workspace.
func (w *Workspace) LocalBlobs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.blobs))
	for name := range w.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Blobs returns the sorted names visible from this workspace, including
// everything reachable through the parent chain.
func (w *Workspace) Blobs() []string {
	seen := make(map[string]struct{})
	for ws := w; ws != nil; ws = ws.shared {
		ws.mu.RLock()
		for name := range ws.blobs {
			seen[name] = struct{}{}
		}
		ws.mu.RUnlock()
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
