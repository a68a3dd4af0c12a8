// Package state models the reactive state store the embedder threads into
// a VM run. The store is an injected collaborator, not ambient state: the
// core only touches it through the narrow Get/Set contract here, and its
// lifecycle is owned by the embedder.
package state

import (
	"sync"

	"github.com/brio-lang/brio/pkg/value"
)

// Store is the external key-value store backing reactive state names.
type Store interface {
	// Get returns the current value of a state name, if present.
	Get(name string) (value.Value, bool)
	// Set replaces the value of a state name.
	Set(name string, v value.Value)
}

// MemoryStore is a mutex-guarded in-memory Store. The VM itself is
// single-threaded per run, but embedders commonly share one store between
// the run loop and the renderer's event callbacks.
type MemoryStore struct {
	mu   sync.RWMutex
	vals map[string]value.Value
}

// NewMemoryStore creates a store pre-seeded with the given defaults.
func NewMemoryStore(defaults map[string]value.Value) *MemoryStore {
	vals := make(map[string]value.Value, len(defaults))
	for name, v := range defaults {
		vals[name] = v
	}
	return &MemoryStore{vals: vals}
}

// Get returns the current value of a state name.
func (s *MemoryStore) Get(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[name]
	return v, ok
}

// Set replaces the value of a state name.
func (s *MemoryStore) Set(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name] = v
}

// Binding is a getter/setter pair bound to one state name. The VM wraps a
// Binding in an opaque native handle; the renderer invokes it when a widget
// reads or writes its backing state.
type Binding struct {
	Name  string
	Store Store
}

// Get reads the bound state value, or Unit when absent.
func (b *Binding) Get() value.Value {
	if b.Store == nil {
		return value.Unit
	}
	if v, ok := b.Store.Get(b.Name); ok {
		return v
	}
	return value.Unit
}

// Set writes the bound state value.
func (b *Binding) Set(v value.Value) {
	if b.Store != nil {
		b.Store.Set(b.Name, v)
	}
}

// Action is a precompiled single-assignment event handler: invoking it
// writes a fixed literal back into the store. Restricting handlers to this
// shape is a sandboxing decision; no closure bodies run at event time.
type Action struct {
	Target string
	Value  value.Value
	Store  Store
}

// Invoke performs the assignment.
func (a *Action) Invoke() {
	if a.Store != nil {
		a.Store.Set(a.Target, a.Value)
	}
}
