package retrievers

import (
	"sort"
	"sync"
)

// Registry maps retriever slugs to the factories that build them.
// It is populated once at startup and read by the dispatcher.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under slug, replacing any existing entry.
func (r *Registry) Register(slug string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[slug] = f
}

// Get returns the factory for slug.
func (r *Registry) Get(slug string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[slug]
	return f, ok
}

// Slugs returns the registered slugs in sorted order.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slugs := make([]string, 0, len(r.factories))
	for slug := range r.factories {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
