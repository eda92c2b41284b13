// Package inject resolves an agent's declared dependency identifiers to
// registered capability values and exposes them on the execution context
// under normalized camelCase keys. Resolution is best-effort: a dependency
// with no registration is logged and skipped — the agent tolerates the gap
// at its own risk, per the engine's degrade-gracefully policy.
package inject

import (
	"strings"
	"sync"

	"github.com/agentpilot/agentpilot/logging"
)

// Resolver is a thread-safe in-memory capability store, keyed by free-form
// dependency identifiers (e.g. "screen-capture", "ocr.service").
type Resolver struct {
	mu           sync.RWMutex
	capabilities map[string]any
	logger       logging.Logger
}

// NewResolver constructs an empty resolver.
func NewResolver(logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Resolver{
		capabilities: make(map[string]any),
		logger:       logger,
	}
}

// Register binds a capability value to an identifier, replacing any
// previous binding.
func (r *Resolver) Register(id string, capability any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[id] = capability
}

// Lookup returns the capability registered under id.
func (r *Resolver) Lookup(id string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.capabilities[id]
	return v, ok
}

// Remove deletes the binding for id.
func (r *Resolver) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.capabilities, id)
}

// Resolve maps each identifier to its registered capability, keyed by the
// camelCase form of the identifier. Unresolvable identifiers are logged at
// warn level and omitted from the result.
func (r *Resolver) Resolve(ids []string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make(map[string]any, len(ids))
	for _, id := range ids {
		v, ok := r.capabilities[id]
		if !ok {
			r.logger.Warn("dependency not registered, skipping", "dependency", id)
			continue
		}
		resolved[CamelKey(id)] = v
	}
	return resolved
}

// CamelKey derives the context key a dependency is exposed under: hyphens
// and dots collapse and the following character is upper-cased, so
// "screen-capture" becomes "screenCapture" and "ocr.service" "ocrService".
func CamelKey(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	upper := false
	for _, r := range id {
		switch r {
		case '-', '.':
			upper = true
		default:
			if upper {
				b.WriteString(strings.ToUpper(string(r)))
				upper = false
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
