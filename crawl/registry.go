package crawl

import (
	"sort"
	"sync"

	"github.com/fwojciec/uidex"
)

// Compile-time interface verification.
var _ uidex.AdapterRegistry = (*Registry)(nil)

// Registry is an in-memory adapter registry keyed by source slug.
// It is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]uidex.SourceAdapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]uidex.SourceAdapter)}
}

// Register associates an adapter with a source slug, replacing any
// previous registration.
func (r *Registry) Register(slug string, adapter uidex.SourceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[slug] = adapter
}

// Get returns the adapter for the slug.
func (r *Registry) Get(slug string) (uidex.SourceAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[slug]
	if !ok {
		return nil, uidex.Errorf(uidex.ENOTFOUND, "no adapter registered for source %q", slug)
	}
	return adapter, nil
}

// Slugs returns the registered source slugs in sorted order.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.adapters))
	for slug := range r.adapters {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
