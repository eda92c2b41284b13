// Package orchestrator is the engine's public entry point: it owns the
// agent registry, the loader cache, the capability resolver and the
// workflow runner, and exposes the execute-agent and execute-workflow
// operations with their never-throw envelope semantics.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/agentpilot/agentpilot/agent"
	"github.com/agentpilot/agentpilot/core"
	"github.com/agentpilot/agentpilot/inject"
	"github.com/agentpilot/agentpilot/logging"
	"github.com/agentpilot/agentpilot/registry"
	"github.com/agentpilot/agentpilot/workflow"
)

// DefaultBootstrapRetries is how many bootstrap attempts an agent gets
// before it is treated as permanently failed.
const DefaultBootstrapRetries = 3

// Options holds configuration overrides passed to New.
type Options struct {
	// Logger is shared by the orchestrator and every subsystem it builds.
	// Defaults to NoOp.
	Logger logging.Logger
	// Config is the orchestrator-wide configuration handed to every
	// bootstrap and execute call as the lowest-precedence context layer.
	Config map[string]any
	// Resolver supplies capability bindings; a fresh empty resolver is
	// built when nil.
	Resolver *inject.Resolver
	// BootstrapRetries caps bootstrap attempts per agent; 0 means
	// unlimited retries.
	BootstrapRetries int
	// MaxIterations caps workflow loop iterations; 0 disables the cap.
	MaxIterations int
}

// WithLogger sets the shared logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithConfig sets the orchestrator-wide configuration map.
func WithConfig(config map[string]any) func(o *Options) {
	return func(o *Options) { o.Config = config }
}

// WithResolver installs a pre-populated capability resolver.
func WithResolver(resolver *inject.Resolver) func(o *Options) {
	return func(o *Options) { o.Resolver = resolver }
}

// WithBootstrapRetries sets the per-agent bootstrap attempt budget.
func WithBootstrapRetries(n int) func(o *Options) {
	return func(o *Options) { o.BootstrapRetries = n }
}

// WithMaxIterations sets the workflow iteration cap.
func WithMaxIterations(n int) func(o *Options) {
	return func(o *Options) { o.MaxIterations = n }
}

// Orchestrator coordinates agent registration, lazy loading, dependency
// injection, lifecycle management and workflow execution. It is safe for
// concurrent use.
type Orchestrator struct {
	registry *registry.Registry
	loader   *agent.Loader
	resolver *inject.Resolver
	runner   *workflow.Runner
	logger   logging.Logger

	config           map[string]any
	bootstrapRetries int
}

var _ core.Orchestrator = (*Orchestrator)(nil)

// New constructs an orchestrator.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Logger:           logging.NoOpLogger{},
		BootstrapRetries: DefaultBootstrapRetries,
		MaxIterations:    workflow.DefaultMaxIterations,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Resolver == nil {
		opts.Resolver = inject.NewResolver(opts.Logger)
	}
	if opts.Config == nil {
		opts.Config = map[string]any{}
	}

	reg := registry.New()
	o := &Orchestrator{
		registry:         reg,
		loader:           agent.NewLoader(reg, opts.Logger),
		resolver:         opts.Resolver,
		logger:           opts.Logger,
		config:           opts.Config,
		bootstrapRetries: opts.BootstrapRetries,
	}
	o.runner = workflow.NewRunner(o, func(ro *workflow.Options) {
		ro.Logger = opts.Logger
		ro.MaxIterations = opts.MaxIterations
	})
	return o
}

// Register adds a native module under its manifest name. Registering a
// name twice replaces the earlier descriptor; an already-loaded instance
// keeps serving until it is unloaded or reloaded.
func (o *Orchestrator) Register(mod core.Module) error {
	if mod == nil {
		return fmt.Errorf("register: nil module")
	}
	name := mod.Manifest().Name
	if name == "" {
		return fmt.Errorf("register: module manifest has no name")
	}
	o.registry.Register(name, registry.Native{Module: mod})
	o.logger.Debug("agent registered", "agent", name, "format", "native")
	return nil
}

// RegisterLegacy adds a legacy source-text agent under the given name.
func (o *Orchestrator) RegisterLegacy(name string, src registry.Legacy) error {
	if name == "" {
		return fmt.Errorf("register: legacy agent has no name")
	}
	o.registry.Register(name, src)
	o.logger.Debug("agent registered", "agent", name, "format", "legacy")
	return nil
}

// Unregister removes the registry entry and drops any cached instance.
func (o *Orchestrator) Unregister(name string) {
	o.registry.Remove(name)
	o.loader.Unload(name)
}

// Agents returns the names of all registered agents.
func (o *Orchestrator) Agents() []string { return o.registry.Names() }

// Capabilities exposes the resolver so callers can bind capability values
// for dependency injection.
func (o *Orchestrator) Capabilities() *inject.Resolver { return o.resolver }

// GetAgent loads (or returns the cached) instance for name.
func (o *Orchestrator) GetAgent(name string) (core.AgentHandle, error) {
	return o.loader.Load(name)
}

// UnloadAgent evicts the cached instance; the next execution rebuilds and
// re-bootstraps it.
func (o *Orchestrator) UnloadAgent(name string) { o.loader.Unload(name) }

// ReloadAgent evicts and immediately rebuilds the instance.
func (o *Orchestrator) ReloadAgent(name string) (core.AgentHandle, error) {
	return o.loader.Reload(name)
}

// ExecuteAgent runs one agent end to end: load, resolve dependencies,
// bootstrap once, execute, wrap. It never returns a raw error and never
// panics outward; every failure mode lands in the envelope.
func (o *Orchestrator) ExecuteAgent(ctx context.Context, name string, params map[string]any, callerCtx map[string]any) (res *core.Result) {
	res = core.NewResult(name, params)

	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("agent panicked", "agent", name, "panic", fmt.Sprint(rec))
			res.Fail(fmt.Errorf("agent %q panicked: %v", name, rec))
		}
	}()

	inst, err := o.loader.Load(name)
	if err != nil {
		o.logger.Warn("agent load failed", "agent", name, "error", err.Error())
		return res.Fail(err)
	}

	deps := o.resolver.Resolve(inst.Dependencies())
	ec := core.NewExecContext(o.config, callerCtx, deps, o)

	if err := inst.EnsureBootstrap(ctx, o.config, ec, o.bootstrapRetries); err != nil {
		o.logger.Warn("agent bootstrap failed", "agent", name, "error", err.Error())
		return res.Fail(err)
	}

	payload, err := inst.Execute(ctx, params, ec)
	if err != nil {
		o.logger.Warn("agent execution failed", "agent", name, "error", err.Error())
		return res.Fail(&core.ExecuteError{Agent: name, Err: err})
	}

	o.logger.Debug("agent executed", "agent", name, "action", res.Action, "call_id", res.CallID)
	return res.Succeed(payload)
}

// ExecuteWorkflow runs an ordered step list over a shared context. The
// context map may be nil; when provided it is mutated in place so callers
// can inspect accumulated state afterwards.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, steps []workflow.Step, shared map[string]any) *workflow.Result {
	return o.runner.Run(ctx, steps, shared)
}
