package core

import "context"

// Orchestrator is the back-reference surface exposed to executing agents,
// enabling agent-to-agent calls without importing the orchestrator package.
type Orchestrator interface {
	// ExecuteAgent runs another agent and returns its envelope. It never
	// returns a raw error; failures are reported inside the envelope.
	ExecuteAgent(ctx context.Context, name string, params map[string]any, callerCtx map[string]any) *Result

	// GetAgent loads (or returns the cached) instance for the given name.
	GetAgent(name string) (AgentHandle, error)
}

// AgentHandle is the read-only view of a loaded agent instance that back
// references hand out.
type AgentHandle interface {
	Name() string
	Description() string
	Dependencies() []string
	Bootstrapped() bool
}

// ExecContext is the transient execution context built fresh for every
// bootstrap/execute call. It merges, in increasing precedence:
//
//  1. orchestrator-wide config
//  2. caller-supplied context
//  3. resolved dependencies (camelCase capability keys)
//  4. orchestrator back-references
//
// Later layers shadow earlier ones. Agents may read and set keys; the
// context is owned by the calling goroutine and must not be retained
// after the call returns.
type ExecContext struct {
	values map[string]any
	deps   map[string]any
	orch   Orchestrator
}

// NewExecContext merges the three value layers and attaches the back
// reference. Any of the maps may be nil.
func NewExecContext(config, callerCtx, deps map[string]any, orch Orchestrator) *ExecContext {
	values := make(map[string]any, len(config)+len(callerCtx)+len(deps))
	for k, v := range config {
		values[k] = v
	}
	for k, v := range callerCtx {
		values[k] = v
	}
	for k, v := range deps {
		values[k] = v
	}
	return &ExecContext{values: values, deps: deps, orch: orch}
}

// Value returns the merged value for key. The "orchestrator" key always
// resolves to the back reference, taking precedence over everything.
func (ec *ExecContext) Value(key string) (any, bool) {
	if key == "orchestrator" && ec.orch != nil {
		return ec.orch, true
	}
	v, ok := ec.values[key]
	return v, ok
}

// Set stores a key on the context, visible to later readers within the
// same call chain.
func (ec *ExecContext) Set(key string, value any) { ec.values[key] = value }

// Dep returns a resolved dependency by its camelCase key.
func (ec *ExecContext) Dep(key string) (any, bool) {
	v, ok := ec.deps[key]
	return v, ok
}

// Values returns a snapshot copy of the merged key/value view.
func (ec *ExecContext) Values() map[string]any {
	out := make(map[string]any, len(ec.values))
	for k, v := range ec.values {
		out[k] = v
	}
	return out
}

// Orchestrator returns the back reference, or nil outside an orchestrated
// call (e.g. in unit tests constructing contexts directly).
func (ec *ExecContext) Orchestrator() Orchestrator { return ec.orch }

// ExecuteAgent is a convenience back reference for agent-to-agent calls.
func (ec *ExecContext) ExecuteAgent(ctx context.Context, name string, params, callerCtx map[string]any) *Result {
	if ec.orch == nil {
		return NewResult(name, params).Fail(&NotRegisteredError{Agent: name})
	}
	return ec.orch.ExecuteAgent(ctx, name, params, callerCtx)
}

// GetAgent is a convenience back reference for instance lookup.
func (ec *ExecContext) GetAgent(name string) (AgentHandle, error) {
	if ec.orch == nil {
		return nil, &NotRegisteredError{Agent: name}
	}
	return ec.orch.GetAgent(name)
}
