package core

import "context"

// Manifest carries the static metadata an agent module declares about itself.
// It is read once at load time and becomes part of the normalized instance.
type Manifest struct {
	// Name is the unique identifier the agent is registered and invoked by.
	Name string `json:"name"`

	// Description is an optional human-readable summary of the agent's purpose.
	Description string `json:"description,omitempty"`

	// Dependencies lists the capability identifiers the agent wants resolved
	// and exposed on its execution context (see the inject package). Missing
	// dependencies are skipped, never fatal.
	Dependencies []string `json:"dependencies,omitempty"`

	// ExecutionTarget optionally names where the agent prefers to run
	// (e.g. "local", "remote"). The engine records it but does not act on it.
	ExecutionTarget string `json:"execution_target,omitempty"`

	// RequiresDatabase flags agents that expect a database capability to be
	// injected. Informational, like ExecutionTarget.
	RequiresDatabase bool `json:"requires_database,omitempty"`
}

// Module is the contract every native agent implements.
//
// Execute is the repeatable unit of work; it may run unboundedly many times
// over the orchestrator's lifetime. Modules needing one-time setup implement
// Bootstrapper in addition; modules exposing named helper functions to other
// agents implement HelperProvider.
//
// Implementations must respect context cancellation and must not retain the
// ExecContext beyond the call.
type Module interface {
	// Manifest returns the agent's declared metadata.
	Manifest() Manifest

	// Execute performs the agent's action with the given parameters and the
	// per-call execution context. The returned value becomes the Result
	// payload of the enclosing envelope.
	Execute(ctx context.Context, params map[string]any, ec *ExecContext) (any, error)
}

// Bootstrapper is implemented by modules that need one-time initialization.
// Bootstrap runs at most once per loaded instance across the orchestrator's
// lifetime; it receives the orchestrator-wide config plus the same enriched
// execution context as Execute.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, config map[string]any, ec *ExecContext) error
}

// HelperProvider is implemented by modules exposing auxiliary callables
// (beyond bootstrap/execute) on their loaded instance. Helpers close over
// the module's own state through their receiver rather than any implicit
// runtime binding.
type HelperProvider interface {
	Helpers() map[string]HelperFunc
}

// ExecuteFunc is the callable shape of a normalized execute operation.
type ExecuteFunc func(ctx context.Context, params map[string]any, ec *ExecContext) (any, error)

// BootstrapFunc is the callable shape of a normalized bootstrap operation.
type BootstrapFunc func(ctx context.Context, config map[string]any, ec *ExecContext) error

// HelperFunc is an auxiliary callable exposed by an agent instance.
type HelperFunc func(ctx context.Context, args map[string]any) (any, error)
