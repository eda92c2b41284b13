package agent

import (
	"sync"

	"github.com/agentpilot/agentpilot/code"
	"github.com/agentpilot/agentpilot/core"
	"github.com/agentpilot/agentpilot/logging"
	"github.com/agentpilot/agentpilot/registry"
)

// Loader resolves registry descriptors into normalized instances. Loading is
// lazy and idempotent: the first Load for a name builds the instance, every
// later Load returns the identical cached value. Structural problems
// (unregistered name, nil module export) fail the load; legacy compilation
// problems degrade to the safe fallback and never abort it.
type Loader struct {
	registry *registry.Registry
	logger   logging.Logger

	mu        sync.Mutex
	instances map[string]*Instance
}

// NewLoader constructs a loader over the given registry.
func NewLoader(reg *registry.Registry, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Loader{
		registry:  reg,
		logger:    logger,
		instances: make(map[string]*Instance),
	}
}

// Load returns the cached instance for name, building it on first use.
func (l *Loader) Load(name string) (*Instance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if inst, ok := l.instances[name]; ok {
		return inst, nil
	}

	desc, ok := l.registry.Lookup(name)
	if !ok {
		return nil, &core.NotRegisteredError{Agent: name}
	}

	inst, err := l.build(desc)
	if err != nil {
		return nil, err
	}
	l.instances[name] = inst
	l.logger.Debug("agent loaded", "agent", name, "deps", len(inst.Dependencies()))
	return inst, nil
}

// Unload drops the cached instance for name, if any. The registry entry
// stays; the next Load rebuilds (and re-bootstraps) the agent.
func (l *Loader) Unload(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.instances, name)
}

// Reload drops the cached instance and loads it again.
func (l *Loader) Reload(name string) (*Instance, error) {
	l.Unload(name)
	return l.Load(name)
}

// Loaded returns the names of all currently cached instances.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.instances))
	for name := range l.instances {
		names = append(names, name)
	}
	return names
}

// build normalizes a descriptor into an Instance. Format detection follows
// the source variant: a Native descriptor must carry a value satisfying the
// core.Module contract, a Legacy descriptor compiles its source text.
func (l *Loader) build(desc registry.Descriptor) (*Instance, error) {
	switch src := desc.Source.(type) {
	case registry.Native:
		mod, ok := src.Module.(core.Module)
		if !ok || mod == nil {
			return nil, &core.MissingExportError{Agent: desc.Name}
		}
		return l.buildNative(desc.Name, mod), nil
	case registry.Legacy:
		return l.buildLegacy(desc.Name, src), nil
	default:
		return nil, &core.MissingExportError{Agent: desc.Name}
	}
}

func (l *Loader) buildNative(name string, mod core.Module) *Instance {
	manifest := mod.Manifest()
	if manifest.Name == "" {
		manifest.Name = name
	}

	inst := &Instance{
		manifest: manifest,
		execute:  mod.Execute,
		helpers:  map[string]core.HelperFunc{},
	}
	if b, ok := mod.(core.Bootstrapper); ok {
		inst.bootstrap = b.Bootstrap
	}
	if hp, ok := mod.(core.HelperProvider); ok {
		for hname, fn := range hp.Helpers() {
			inst.helpers[hname] = fn
		}
	}
	return inst
}

func (l *Loader) buildLegacy(name string, src registry.Legacy) *Instance {
	manifest := core.Manifest{
		Name:             name,
		Description:      src.Description,
		Dependencies:     src.Dependencies,
		ExecutionTarget:  src.ExecutionTarget,
		RequiresDatabase: src.RequiresDatabase,
	}
	if src.Name != "" {
		manifest.Name = src.Name
	}

	inst := &Instance{manifest: manifest, helpers: map[string]core.HelperFunc{}}

	if src.Code == "" {
		l.logger.Warn("legacy agent has no execute code, installing fallback", "agent", name)
		inst.execute = code.Fallback()
	} else if execute, err := code.Compile(src.Code); err != nil {
		l.logger.Warn("legacy execute code failed to compile, installing fallback",
			"agent", name, "error", err.Error())
		inst.execute = code.Fallback()
	} else {
		inst.execute = execute
	}

	if src.Bootstrap != "" {
		bootstrap, err := code.CompileBootstrap(src.Bootstrap)
		if err != nil {
			// A broken bootstrap is dropped rather than poisoning the
			// agent: execute still runs without one-time setup.
			l.logger.Warn("legacy bootstrap code failed to compile, skipping",
				"agent", name, "error", err.Error())
		} else {
			inst.bootstrap = bootstrap
		}
	}
	return inst
}
