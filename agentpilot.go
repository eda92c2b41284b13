// Package agentpilot provides a high-level façade over the orchestration
// engine: a dynamic agent registry, lazy loading of native and legacy
// source-text agents, capability injection, and workflow execution with
// in-run control signals. Most applications interact with this package by:
//  1. Creating an AgentPilot via New() (optionally supplying a logger,
//     configuration and capability bindings)
//  2. Registering agents (native modules or legacy source descriptors)
//  3. Executing single agents (ExecuteAgent) or step sequences
//     (ExecuteWorkflow)
//
// The façade delegates to orchestrator.Orchestrator while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger and
// real capability implementations.
package agentpilot

import (
	"context"

	"github.com/agentpilot/agentpilot/core"
	"github.com/agentpilot/agentpilot/inject"
	"github.com/agentpilot/agentpilot/logging"
	"github.com/agentpilot/agentpilot/orchestrator"
	"github.com/agentpilot/agentpilot/registry"
	"github.com/agentpilot/agentpilot/workflow"
)

// Options configures the AgentPilot instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// Config is the engine-wide configuration handed to every bootstrap
	// and execute call as the lowest-precedence context layer.
	Config map[string]any

	// BootstrapRetries caps bootstrap attempts per agent before the agent
	// is treated as permanently failed. Set to 0 for unlimited retries.
	BootstrapRetries int

	// MaxIterations caps workflow loop iterations to bound runaway control
	// loops. Set to 0 for unlimited (not recommended).
	MaxIterations int
}

// AgentPilot is the high-level façade aggregating the underlying
// orchestrator and its capability resolver.
type AgentPilot struct {
	opts Options
	orch *orchestrator.Orchestrator
}

// New creates a new AgentPilot instance with optional overrides.
func New(optFns ...func(o *Options)) *AgentPilot {
	opts := Options{
		Logger:           logging.NoOpLogger{},
		BootstrapRetries: orchestrator.DefaultBootstrapRetries,
		MaxIterations:    workflow.DefaultMaxIterations,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	orch := orchestrator.New(
		orchestrator.WithLogger(opts.Logger),
		orchestrator.WithConfig(opts.Config),
		orchestrator.WithBootstrapRetries(opts.BootstrapRetries),
		orchestrator.WithMaxIterations(opts.MaxIterations),
	)

	return &AgentPilot{opts: opts, orch: orch}
}

// Register adds a native module under its manifest name.
func (p *AgentPilot) Register(mod core.Module) error { return p.orch.Register(mod) }

// RegisterLegacy adds a legacy source-text agent under the given name.
func (p *AgentPilot) RegisterLegacy(name string, src registry.Legacy) error {
	return p.orch.RegisterLegacy(name, src)
}

// Unregister removes an agent and drops its cached instance.
func (p *AgentPilot) Unregister(name string) { p.orch.Unregister(name) }

// Agents returns the names of all registered agents.
func (p *AgentPilot) Agents() []string { return p.orch.Agents() }

// Capabilities exposes the resolver used for dependency injection.
func (p *AgentPilot) Capabilities() *inject.Resolver { return p.orch.Capabilities() }

// GetAgent loads (or returns the cached) instance for name.
func (p *AgentPilot) GetAgent(name string) (core.AgentHandle, error) {
	return p.orch.GetAgent(name)
}

// UnloadAgent evicts the cached instance for name.
func (p *AgentPilot) UnloadAgent(name string) { p.orch.UnloadAgent(name) }

// ReloadAgent evicts and immediately rebuilds the instance for name.
func (p *AgentPilot) ReloadAgent(name string) (core.AgentHandle, error) {
	return p.orch.ReloadAgent(name)
}

// ExecuteAgent runs one agent and returns its result envelope. Failures
// are reported inside the envelope, never as a raised error.
func (p *AgentPilot) ExecuteAgent(ctx context.Context, name string, params map[string]any, callerCtx map[string]any) *core.Result {
	return p.orch.ExecuteAgent(ctx, name, params, callerCtx)
}

// ExecuteWorkflow runs an ordered step list over a shared context map.
func (p *AgentPilot) ExecuteWorkflow(ctx context.Context, steps []workflow.Step, shared map[string]any) *workflow.Result {
	return p.orch.ExecuteWorkflow(ctx, steps, shared)
}

// Orchestrator returns the underlying orchestrator for callers that need
// the lower-level surface (e.g. the HTTP server).
func (p *AgentPilot) Orchestrator() *orchestrator.Orchestrator { return p.orch }
