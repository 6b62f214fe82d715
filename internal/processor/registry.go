package processor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kingrea/flowbench/internal/feature"
)

// Factory constructs a processor for the feature described by d.
type Factory func(d feature.Descriptor) (Processor, error)

// Static returns a factory that always hands out p.
func Static(p Processor) Factory {
	return func(feature.Descriptor) (Processor, error) { return p, nil }
}

// Registry maps feature ids to processor factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a factory. Returns an error if the id already exists.
func (r *Registry) Register(id string, factory Factory) error {
	if err := checkEntry(id, factory); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("processor: %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// Replace installs a factory, overwriting any existing entry.
func (r *Registry) Replace(id string, factory Factory) error {
	if err := checkEntry(id, factory); err != nil {
		return err
	}
	r.mu.Lock()
	r.factories[id] = factory
	r.mu.Unlock()
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Has reports whether a factory exists for id.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// Resolve constructs the processor for d.ID.
func (r *Registry) Resolve(d feature.Descriptor) (Processor, error) {
	r.mu.RLock()
	factory, ok := r.factories[d.ID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("processor: no processor registered for %s", d.ID)
	}
	p, err := factory(d)
	if err != nil {
		return nil, fmt.Errorf("processor: build %s: %w", d.ID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("processor: factory for %s returned nil", d.ID)
	}
	return p, nil
}

// IDs returns a sorted list of registered feature ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func checkEntry(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("processor: id is required")
	}
	if factory == nil {
		return fmt.Errorf("processor: factory is required for %s", id)
	}
	return nil
}
