// Package workflow implements the state machine that sequences multiple
// agent executions: an ordered step list, a mutable shared context threaded
// through every step, a results accumulator mirrored back into that context,
// and a control-signal surface (start/next/stop/pause) that the executing
// agents themselves can use to redirect the run.
package workflow

import (
	"sync"
	"time"

	"github.com/agentpilot/agentpilot/core"
)

// Status enumerates the lifecycle states of a workflow run. A run starts
// running; paused is resumable by an external re-invocation, the other
// states are terminal for that State instance.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusStopped   Status = "stopped"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

// Step is a caller-provided workflow entry: which agent to run, with which
// parameters, optional step-local context overlay, and whether a failure
// of this step lets the run proceed.
type Step struct {
	Agent           string         `json:"agent"`
	Params          map[string]any `json:"params,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	ContinueOnError bool           `json:"continueOnError,omitempty"`
}

// State holds the mutable run state. It is created per run, mutated in
// place by the runner and by control signals, and discarded when the run
// returns. The mutex exists because control methods may be called from a
// step agent while the runner owns the loop; both happen on the calling
// goroutine in normal operation, but the guard keeps external inspection
// safe.
type State struct {
	mu      sync.Mutex
	steps   []Step
	current int
	results []core.StepResult
	context map[string]any
	status  Status
	paused  bool
	// redirect marks that the cursor was explicitly repositioned during
	// the current iteration, suppressing the runner's default increment.
	redirect bool
}

func newState(steps []Step, shared map[string]any) *State {
	return &State{
		steps:   steps,
		context: shared,
		status:  StatusRunning,
	}
}

// CurrentStep returns the cursor position. While the run is active it is a
// valid index into the step list; on normal completion it equals the step
// count.
func (s *State) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// TotalSteps returns the number of declared steps.
func (s *State) TotalSteps() int { return len(s.steps) }

// Results returns a copy of the accumulated step results in execution order.
func (s *State) Results() []core.StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.StepResult, len(s.results))
	copy(out, s.results)
	return out
}

// Context returns the shared context map. Callers share ownership with the
// runner; see the concurrency notes on Runner.
func (s *State) Context() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context
}

// Status returns the current lifecycle status.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Paused reports whether a pause signal is pending or effective.
func (s *State) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *State) setCurrent(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = idx
}

func (s *State) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *State) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *State) appendResult(sr core.StepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, sr)
}

func (s *State) redirected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirect
}

// Result is the envelope returned by a workflow run.
type Result struct {
	Success    bool              `json:"success"`
	Status     Status            `json:"status"`
	Steps      int               `json:"steps"`
	TotalSteps int               `json:"totalSteps"`
	Current    int               `json:"currentStep"`
	Results    []core.StepResult `json:"results"`
	Paused     bool              `json:"paused"`
	RunID      string            `json:"run_id"`
	Timestamp  time.Time         `json:"timestamp"`
}
