package feature

import (
	"sort"
	"sync"
)

// Catalog holds feature descriptors keyed by feature id.
type Catalog struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	warn        func(format string, args ...any)
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{descriptors: map[string]Descriptor{}}
}

// SetWarnFunc installs the callback used when Lookup falls back.
func (c *Catalog) SetWarnFunc(fn func(format string, args ...any)) {
	c.mu.Lock()
	c.warn = fn
	c.mu.Unlock()
}

// Register installs or replaces a descriptor.
func (c *Catalog) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	c.mu.Lock()
	c.descriptors[d.ID] = d.Clone()
	c.mu.Unlock()
	return nil
}

// Descriptor returns the registered descriptor for id.
func (c *Catalog) Descriptor(id string) (Descriptor, bool) {
	c.mu.RLock()
	d, ok := c.descriptors[id]
	c.mu.RUnlock()
	if !ok {
		return Descriptor{}, false
	}
	return d.Clone(), true
}

// Lookup returns the descriptor for id, or Fallback(id) when none is known.
func (c *Catalog) Lookup(id string) Descriptor {
	if d, ok := c.Descriptor(id); ok {
		return d
	}
	c.mu.RLock()
	warn := c.warn
	c.mu.RUnlock()
	if warn != nil {
		warn("feature: no metadata for %s, treating it as having no inputs", id)
	}
	return Fallback(id)
}

// List returns every descriptor sorted by id.
func (c *Catalog) List() []Descriptor {
	c.mu.RLock()
	out := make([]Descriptor, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		out = append(out, d.Clone())
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of registered descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.descriptors)
}
