// Package registry provides the ordered, id-keyed collection of generator
// specifications used for plugins and builtins
package registry

import (
	"encoding/json"

	"github.com/okra-platform/protoplan/internal/planerr"
)

// Registry kinds
const (
	KindPlugins  = "plugins"
	KindBuiltins = "builtins"
)

// Configure mutates a freshly created or existing entry
type Configure func(spec *PluginSpec)

// Registry manages generator specifications in insertion order.
// Iteration order is the generator invocation order.
type Registry struct {
	kind    string
	order   []string
	entries map[string]*PluginSpec
}

// New creates an empty registry of the given kind
func New(kind string) *Registry {
	return &Registry{
		kind:    kind,
		entries: make(map[string]*PluginSpec),
	}
}

// Kind returns the registry kind used in error reports
func (r *Registry) Kind() string {
	return r.kind
}

// Ensure returns the entry for id, creating and appending it when absent.
// configure, when non-nil, is applied to the entry in both cases.
func (r *Registry) Ensure(id string, configure Configure) *PluginSpec {
	spec, exists := r.entries[id]
	if !exists {
		spec = &PluginSpec{ID: id}
		r.entries[id] = spec
		r.order = append(r.order, id)
	}
	if configure != nil {
		configure(spec)
	}
	return spec
}

// Remove deletes the entry for id
func (r *Registry) Remove(id string) error {
	if _, exists := r.entries[id]; !exists {
		return &planerr.NotFoundError{Kind: r.kind, ID: id}
	}

	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the entry for id
func (r *Registry) Get(id string) (*PluginSpec, bool) {
	spec, ok := r.entries[id]
	return spec, ok
}

// Has checks if id is present
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of entries
func (r *Registry) Len() int {
	return len(r.order)
}

// IDs returns the ids in insertion order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// All returns the entries in insertion order
func (r *Registry) All() []*PluginSpec {
	specs := make([]*PluginSpec, 0, len(r.order))
	for _, id := range r.order {
		specs = append(specs, r.entries[id])
	}
	return specs
}

// Clone returns a registry owning deep copies of every entry
func (r *Registry) Clone() *Registry {
	c := &Registry{
		kind:    r.kind,
		order:   make([]string, len(r.order)),
		entries: make(map[string]*PluginSpec, len(r.entries)),
	}
	copy(c.order, r.order)
	for id, spec := range r.entries {
		c.entries[id] = spec.Clone()
	}
	return c
}

// MarshalJSON encodes the registry as an ordered list of entries
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.All())
}
