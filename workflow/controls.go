package workflow

import "github.com/agentpilot/agentpilot/core"

// ControlsKey is the context key the control surface is exposed under in
// every step's execution context.
const ControlsKey = "workflowControls"

// Controls is the control-signal surface handed to every step. Mutators
// redirect the run that is currently executing the calling agent; accessors
// expose read-only run state. Agents that prefer a declarative style can
// instead return a core.Directive in their result payload.
type Controls struct {
	state *State
}

func newControls(state *State) *Controls { return &Controls{state: state} }

// Start rewinds the run to stepIndex and clears any pause, putting the
// status back to running.
func (c *Controls) Start(stepIndex int) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	if stepIndex < 0 {
		stepIndex = 0
	}
	c.state.current = stepIndex
	c.state.status = StatusRunning
	c.state.paused = false
	c.state.redirect = true
}

// Next moves the cursor to stepIndex; a negative index advances by one.
// The jump takes effect on the next loop iteration.
func (c *Controls) Next(stepIndex int) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	if stepIndex < 0 {
		c.state.current++
	} else {
		c.state.current = stepIndex
	}
	c.state.redirect = true
}

// Stop terminates the run after the current step completes. In-flight work
// is not aborted; only future steps are prevented.
func (c *Controls) Stop(reason string) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.status = StatusStopped
	if reason != "" {
		c.state.context["stop_reason"] = reason
	}
}

// Pause suspends the run after the current step completes. The run is
// resumable only by an external re-invocation; no automatic resume exists.
func (c *Controls) Pause(reason string) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.paused = true
	if reason != "" {
		c.state.context["pause_reason"] = reason
	}
}

// GetCurrentStep returns the cursor position.
func (c *Controls) GetCurrentStep() int { return c.state.CurrentStep() }

// GetTotalSteps returns the declared step count.
func (c *Controls) GetTotalSteps() int { return c.state.TotalSteps() }

// GetResults returns the step results accumulated so far.
func (c *Controls) GetResults() []core.StepResult { return c.state.Results() }

// GetContext returns the shared context map.
func (c *Controls) GetContext() map[string]any { return c.state.Context() }

// GetStatus returns the run's lifecycle status.
func (c *Controls) GetStatus() Status { return c.state.Status() }

// ControlsFrom extracts the control surface from an execution context,
// for agents that want to steer their containing workflow imperatively.
func ControlsFrom(ec *core.ExecContext) (*Controls, bool) {
	v, ok := ec.Value(ControlsKey)
	if !ok {
		return nil, false
	}
	c, ok := v.(*Controls)
	return c, ok
}
