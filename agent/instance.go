// Package agent provides the normalized runtime representation of a loaded
// agent (Instance) and the Loader that resolves registry descriptors into
// cached instances, handling both native and legacy source formats.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentpilot/agentpilot/core"
)

// Instance is the uniform in-memory representation of a loaded agent,
// regardless of source format. Instances are created once per distinct name
// on first load and cached for the loader's lifetime. The bootstrapped flag
// flips true after the first successful bootstrap and is never reset.
//
// All lifecycle state is guarded by a mutex; holding it across the bootstrap
// call serializes concurrent first-call bootstraps so the at-most-once
// invariant holds under concurrent executors.
type Instance struct {
	manifest core.Manifest

	execute   core.ExecuteFunc
	bootstrap core.BootstrapFunc // nil when the module declares no bootstrap
	helpers   map[string]core.HelperFunc

	mu           sync.Mutex
	bootstrapped bool
	attempts     int
	bootstrapErr error
}

// Name returns the agent's registered name.
func (i *Instance) Name() string { return i.manifest.Name }

// Description returns the agent's declared description.
func (i *Instance) Description() string { return i.manifest.Description }

// Dependencies returns the capability identifiers the agent declared.
func (i *Instance) Dependencies() []string { return i.manifest.Dependencies }

// ExecutionTarget returns the declared execution target, if any.
func (i *Instance) ExecutionTarget() string { return i.manifest.ExecutionTarget }

// RequiresDatabase reports whether the agent declared a database dependency.
func (i *Instance) RequiresDatabase() bool { return i.manifest.RequiresDatabase }

// Bootstrapped reports whether the one-time bootstrap has completed.
func (i *Instance) Bootstrapped() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bootstrapped
}

// Helper returns a named auxiliary callable exposed by the agent.
func (i *Instance) Helper(name string) (core.HelperFunc, bool) {
	h, ok := i.helpers[name]
	return h, ok
}

// HelperNames returns the names of all exposed helper callables.
func (i *Instance) HelperNames() []string {
	names := make([]string, 0, len(i.helpers))
	for name := range i.helpers {
		names = append(names, name)
	}
	return names
}

// EnsureBootstrap runs the agent's bootstrap exactly once. A failed
// bootstrap leaves the instance un-bootstrapped so a later call retries,
// up to maxAttempts (0 means unlimited); once the budget is exhausted the
// recorded error is returned without re-invoking agent code.
func (i *Instance) EnsureBootstrap(ctx context.Context, config map[string]any, ec *core.ExecContext, maxAttempts int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bootstrap == nil || i.bootstrapped {
		return nil
	}
	if maxAttempts > 0 && i.attempts >= maxAttempts {
		return &core.BootstrapError{
			Agent: i.manifest.Name,
			Err:   fmt.Errorf("permanently failed after %d attempts: %w", i.attempts, i.bootstrapErr),
		}
	}

	i.attempts++
	if err := i.bootstrap(ctx, config, ec); err != nil {
		i.bootstrapErr = err
		return &core.BootstrapError{Agent: i.manifest.Name, Err: err}
	}
	i.bootstrapped = true
	i.bootstrapErr = nil
	return nil
}

// Execute invokes the agent's repeatable action.
func (i *Instance) Execute(ctx context.Context, params map[string]any, ec *core.ExecContext) (any, error) {
	return i.execute(ctx, params, ec)
}
