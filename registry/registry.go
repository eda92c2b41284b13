// Package registry maps agent names to loadable source descriptors. It holds
// no loading logic: registration never validates that a source is actually
// loadable, failures surface lazily when the loader resolves the descriptor.
package registry

import "sync"

// Descriptor is a registry entry binding a name to its source. Immutable
// once registered.
type Descriptor struct {
	Name   string
	Source Source
}

// Source describes where an agent's implementation comes from. It is a
// closed tagged variant: Native (a Go module value) or Legacy (bootstrap and
// execute supplied as source text, compiled at load time).
type Source interface {
	isSource()
}

// Native wraps a module that natively exposes callable bootstrap/execute
// operations. Module is typed any here to keep the registry free of loader
// concerns; the loader asserts the core.Module contract at load time and
// reports a missing-export error when the assertion fails.
type Native struct {
	Module any
}

func (Native) isSource() {}

// Legacy carries an agent whose bootstrap/execute logic is source text.
// The loader compiles Code and Bootstrap into callables through the code
// package; invalid or absent code degrades to a safe fallback.
type Legacy struct {
	Name             string
	Description      string
	Dependencies     []string
	ExecutionTarget  string
	RequiresDatabase bool
	Bootstrap        string
	Code             string
}

func (Legacy) isSource() {}

// Registry is a thread-safe name → descriptor map.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Descriptor)}
}

// Register stores a descriptor, replacing any previous entry for the name.
func (r *Registry) Register(name string, src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = Descriptor{Name: name, Source: src}
}

// Lookup returns the descriptor for name, if registered.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[name]
	return d, ok
}

// Remove deletes the entry for name. Removing an unknown name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Names returns all registered agent names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
