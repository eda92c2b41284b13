package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentpilot/agentpilot/core"
	"github.com/agentpilot/agentpilot/logging"
)

// Executor runs a single agent and always returns an envelope; the runner
// depends on this narrow surface rather than the full orchestrator.
type Executor interface {
	ExecuteAgent(ctx context.Context, name string, params map[string]any, callerCtx map[string]any) *core.Result
}

// DefaultMaxIterations bounds runaway control loops: an agent repeatedly
// jumping behind the cursor would otherwise run forever. Set the option to
// 0 to restore the unbounded behavior.
const DefaultMaxIterations = 1000

// Options holds configuration overrides passed to NewRunner.
type Options struct {
	// Logger receives per-step debug and failure logs. Defaults to NoOp.
	Logger logging.Logger
	// MaxIterations caps loop iterations per run; 0 disables the cap.
	MaxIterations int
}

// Runner sequences agent executions over a mutable shared context.
//
// Concurrency model: a run executes its steps strictly sequentially on the
// calling goroutine; the shared context map is owned by the runner for the
// duration of the run and handed to step agents for reads and key writes.
// Stop signals prevent future steps from starting, they never abort the
// in-flight step. No per-step timeout is enforced here; callers wanting one
// wrap the executor.
type Runner struct {
	executor      Executor
	logger        logging.Logger
	maxIterations int
}

// NewRunner constructs a runner around an executor.
func NewRunner(executor Executor, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		MaxIterations: DefaultMaxIterations,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		executor:      executor,
		logger:        opts.Logger,
		maxIterations: opts.MaxIterations,
	}
}

// Run executes the steps in order, threading the shared context through
// every step and honoring control signals issued by the step agents. The
// shared map is mutated in place (step results are mirrored into it under
// "<agent>_result" and "step_<i>_result" keys) so callers can both seed
// and inspect it.
func (r *Runner) Run(ctx context.Context, steps []Step, shared map[string]any) *Result {
	if shared == nil {
		shared = map[string]any{}
	}

	runID := uuid.NewString()
	state := newState(steps, shared)
	controls := newControls(state)
	shared[ControlsKey] = controls

	r.logger.Debug("workflow started", "run_id", runID, "steps", len(steps))

	iterations := 0
	for {
		state.mu.Lock()
		if state.status != StatusRunning || state.current >= len(steps) || state.paused {
			state.mu.Unlock()
			break
		}
		idx := state.current
		state.redirect = false
		state.mu.Unlock()

		if ctx.Err() != nil {
			r.logger.Warn("workflow context cancelled", "run_id", runID, "step", idx)
			state.setStatus(StatusStopped)
			break
		}

		iterations++
		if r.maxIterations > 0 && iterations > r.maxIterations {
			r.logger.Error("workflow exceeded iteration cap", "run_id", runID, "cap", r.maxIterations)
			state.appendResult(r.syntheticFailure(steps[idx], idx,
				fmt.Errorf("workflow exceeded %d iterations", r.maxIterations)))
			state.setStatus(StatusFailed)
			break
		}

		step := steps[idx]
		stepCtx := r.buildStepContext(shared, step, state, controls, idx, len(steps))

		res := r.executeStep(ctx, step, stepCtx)
		sr := core.StepResult{Result: *res, Step: idx}
		state.appendResult(sr)
		shared[step.Agent+"_result"] = sr
		shared[fmt.Sprintf("step_%d_result", idx)] = sr

		r.logger.Debug("workflow step finished",
			"run_id", runID, "step", idx, "agent", step.Agent, "success", res.Success)

		if d, ok := core.DirectiveFrom(res.Result); ok {
			if r.applyDirective(state, d, idx, runID) {
				continue
			}
		}

		if !res.Success && !step.ContinueOnError {
			state.setStatus(StatusFailed)
			break
		}
		if !state.redirected() {
			state.setCurrent(idx + 1)
		}
	}

	return r.finalize(state, runID)
}

// applyDirective honors a control directive returned in a step's result
// payload. It reports true when the loop should continue without the
// default increment; unrecognized actions fall back to it.
func (r *Runner) applyDirective(state *State, d core.Directive, idx int, runID string) bool {
	switch d.Action {
	case core.DirectiveNext:
		target := d.TargetStep
		if target < 0 {
			target = idx + 1
		}
		r.logger.Debug("workflow redirected by step", "run_id", runID, "from", idx, "to", target)
		state.setCurrent(target)
		return true
	case core.DirectiveStop:
		r.logger.Info("workflow stopped by step", "run_id", runID, "step", idx, "reason", d.Reason)
		state.setStatus(StatusStopped)
		return true
	case core.DirectivePause:
		r.logger.Info("workflow paused by step", "run_id", runID, "step", idx, "reason", d.Reason)
		state.setPaused(true)
		state.setCurrent(idx + 1)
		return true
	default:
		r.logger.Warn("unrecognized workflow directive", "run_id", runID, "action", string(d.Action))
		return false
	}
}

// buildStepContext merges, in order: the shared run context, the step's own
// context overlay, and the runner-provided view (previous results, cursor
// position, control surface).
func (r *Runner) buildStepContext(
	shared map[string]any,
	step Step,
	state *State,
	controls *Controls,
	idx, total int,
) map[string]any {
	stepCtx := make(map[string]any, len(shared)+len(step.Context)+4)
	for k, v := range shared {
		stepCtx[k] = v
	}
	for k, v := range step.Context {
		stepCtx[k] = v
	}
	stepCtx["previousResults"] = state.Results()
	stepCtx["currentStep"] = idx
	stepCtx["totalSteps"] = total
	stepCtx[ControlsKey] = controls
	return stepCtx
}

// executeStep shields the loop from a misbehaving executor: a panic or nil
// envelope becomes a synthetic failed result instead of unwinding the run.
func (r *Runner) executeStep(ctx context.Context, step Step, stepCtx map[string]any) (res *core.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = core.NewResult(step.Agent, step.Params).Fail(fmt.Errorf("step panicked: %v", rec))
		}
	}()

	res = r.executor.ExecuteAgent(ctx, step.Agent, step.Params, stepCtx)
	if res == nil {
		res = core.NewResult(step.Agent, step.Params).Fail(fmt.Errorf("executor returned no result"))
	}
	return res
}

func (r *Runner) syntheticFailure(step Step, idx int, err error) core.StepResult {
	return core.StepResult{
		Result: *core.NewResult(step.Agent, step.Params).Fail(err),
		Step:   idx,
	}
}

func (r *Runner) finalize(state *State, runID string) *Result {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.status == StatusRunning {
		switch {
		case state.current >= len(state.steps):
			// Every step ran; a pause issued during the final step has
			// nothing left to suspend.
			state.status = StatusCompleted
			state.paused = false
		case state.paused:
			state.status = StatusPaused
		}
	}

	allSucceeded := true
	for _, sr := range state.results {
		if !sr.Success {
			allSucceeded = false
			break
		}
	}

	results := make([]core.StepResult, len(state.results))
	copy(results, state.results)

	res := &Result{
		Success:    allSucceeded && state.status == StatusCompleted,
		Status:     state.status,
		Steps:      len(results),
		TotalSteps: len(state.steps),
		Current:    state.current,
		Results:    results,
		Paused:     state.paused,
		RunID:      runID,
		Timestamp:  time.Now().UTC(),
	}
	r.logger.Info("workflow finished",
		"run_id", runID, "status", string(res.Status), "steps", res.Steps, "success", res.Success)
	return res
}
