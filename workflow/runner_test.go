package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpilot/agentpilot/core"
	"github.com/agentpilot/agentpilot/logging"
)

// scriptedExecutor runs canned step functions keyed by agent name. A nil
// function succeeds with an empty payload.
type scriptedExecutor struct {
	agents map[string]func(call int, callerCtx map[string]any) (any, error)
	calls  map[string]int
	log    []string
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{
		agents: map[string]func(int, map[string]any) (any, error){},
		calls:  map[string]int{},
	}
}

func (e *scriptedExecutor) on(name string, fn func(call int, callerCtx map[string]any) (any, error)) {
	e.agents[name] = fn
}

func (e *scriptedExecutor) ExecuteAgent(ctx context.Context, name string, params map[string]any, callerCtx map[string]any) *core.Result {
	e.calls[name]++
	e.log = append(e.log, name)

	res := core.NewResult(name, params)
	fn, ok := e.agents[name]
	if !ok {
		return res.Succeed(map[string]any{})
	}
	payload, err := fn(e.calls[name], callerCtx)
	if err != nil {
		return res.Fail(err)
	}
	return res.Succeed(payload)
}

func newTestRunner(e Executor) *Runner {
	return NewRunner(e, func(o *Options) { o.Logger = logging.NoOpLogger{} })
}

func TestRunner_Run_AllStepsComplete(t *testing.T) {
	exec := newScriptedExecutor()
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b"}, {Agent: "c"},
	}, nil)

	assert.True(t, res.Success)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, []string{"a", "b", "c"}, exec.log)
	assert.Equal(t, 3, res.Current)
}

func TestRunner_Run_ResultsMirroredIntoContext(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("a", func(int, map[string]any) (any, error) {
		return map[string]any{"value": 7}, nil
	})
	runner := newTestRunner(exec)

	shared := map[string]any{}
	res := runner.Run(context.Background(), []Step{{Agent: "a"}, {Agent: "b"}}, shared)
	require.True(t, res.Success)

	byAgent, ok := shared["a_result"].(core.StepResult)
	require.True(t, ok)
	byIndex, ok := shared["step_0_result"].(core.StepResult)
	require.True(t, ok)

	assert.Equal(t, byAgent, byIndex)
	assert.Equal(t, byAgent, res.Results[0])
	assert.Equal(t, 0, byAgent.Step)
	assert.Equal(t, map[string]any{"value": 7}, byAgent.Result.Result)
}

func TestRunner_Run_LaterStepSeesEarlierResults(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("a", func(int, map[string]any) (any, error) {
		return map[string]any{"value": 7}, nil
	})

	var seen any
	exec.on("b", func(_ int, callerCtx map[string]any) (any, error) {
		seen = callerCtx["a_result"]
		prev, _ := callerCtx["previousResults"].([]core.StepResult)
		require.Len(t, prev, 1)
		assert.Equal(t, 1, callerCtx["currentStep"])
		return nil, nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{{Agent: "a"}, {Agent: "b"}}, nil)
	require.True(t, res.Success)

	sr, ok := seen.(core.StepResult)
	require.True(t, ok)
	assert.Equal(t, "a", sr.Agent)
}

func TestRunner_Run_StepContextOverlay(t *testing.T) {
	exec := newScriptedExecutor()

	var got map[string]any
	exec.on("a", func(_ int, callerCtx map[string]any) (any, error) {
		got = callerCtx
		return nil, nil
	})
	runner := newTestRunner(exec)

	shared := map[string]any{"env": "prod", "region": "eu"}
	runner.Run(context.Background(), []Step{
		{Agent: "a", Context: map[string]any{"region": "us"}},
	}, shared)

	assert.Equal(t, "prod", got["env"])
	assert.Equal(t, "us", got["region"], "step context shadows shared context")
	assert.Equal(t, 0, got["currentStep"])
	assert.Equal(t, 1, got["totalSteps"])
	_, ok := got[ControlsKey].(*Controls)
	assert.True(t, ok)
}

func TestRunner_Run_FailureStopsRun(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(int, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b"}, {Agent: "c"},
	}, nil)

	assert.False(t, res.Success)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 0, exec.calls["c"])
}

func TestRunner_Run_ContinueOnError(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(int, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b", ContinueOnError: true}, {Agent: "c"},
	}, nil)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 3, res.Steps)
	assert.False(t, res.Success, "a failed step result keeps overall success false")
	assert.Equal(t, 1, exec.calls["c"])
}

func TestRunner_Run_NextDirectiveJumpsBack(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(call int, _ map[string]any) (any, error) {
		if call == 1 {
			return map[string]any{
				"workflowControl": map[string]any{"action": "next", "targetStep": 0},
			}, nil
		}
		return map[string]any{}, nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b"}, {Agent: "c"},
	}, nil)

	assert.Equal(t, []string{"a", "b", "a", "b", "c"}, exec.log)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.True(t, res.Success)
	assert.Equal(t, 5, res.Steps)
}

func TestRunner_Run_TypedNextDirective(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("a", func(call int, _ map[string]any) (any, error) {
		if call == 1 {
			return core.NextDirective(2), nil
		}
		return nil, nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b"}, {Agent: "c"},
	}, nil)

	assert.Equal(t, []string{"a", "c"}, exec.log)
	assert.Equal(t, StatusCompleted, res.Status)
}

func TestRunner_Run_StopDirective(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(int, map[string]any) (any, error) {
		return core.StopDirective("enough"), nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b"}, {Agent: "c"},
	}, nil)

	assert.Equal(t, StatusStopped, res.Status)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 0, exec.calls["c"])
}

func TestRunner_Run_PauseDirective(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(int, map[string]any) (any, error) {
		return core.PauseDirective("waiting for operator"), nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b"}, {Agent: "c"},
	}, nil)

	assert.Equal(t, StatusPaused, res.Status)
	assert.True(t, res.Paused)
	assert.Equal(t, 2, res.Steps)
	// The cursor advanced past the pausing step so an external resume
	// continues at c.
	assert.Equal(t, 2, res.Current)
	assert.Equal(t, 0, exec.calls["c"])
}

func TestRunner_Run_PauseOnFinalStepCompletes(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(int, map[string]any) (any, error) {
		return core.PauseDirective("too late"), nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{{Agent: "a"}, {Agent: "b"}}, nil)

	// The cursor moved past the last step, so the run is completed, not
	// suspended.
	assert.Equal(t, StatusCompleted, res.Status)
	assert.False(t, res.Paused)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Steps)
}

func TestRunner_Run_ImperativeControls(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(call int, callerCtx map[string]any) (any, error) {
		controls := callerCtx[ControlsKey].(*Controls)
		if call == 1 {
			controls.Next(0)
		}
		return map[string]any{}, nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{
		{Agent: "a"}, {Agent: "b"}, {Agent: "c"},
	}, nil)

	assert.Equal(t, []string{"a", "b", "a", "b", "c"}, exec.log)
	assert.Equal(t, StatusCompleted, res.Status)
}

func TestRunner_Run_ImperativeStop(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("a", func(_ int, callerCtx map[string]any) (any, error) {
		controls := callerCtx[ControlsKey].(*Controls)
		controls.Stop("abort")
		return map[string]any{}, nil
	})
	runner := newTestRunner(exec)

	shared := map[string]any{}
	res := runner.Run(context.Background(), []Step{{Agent: "a"}, {Agent: "b"}}, shared)

	assert.Equal(t, StatusStopped, res.Status)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, "abort", shared["stop_reason"])
}

func TestRunner_Run_ControlAccessors(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("b", func(_ int, callerCtx map[string]any) (any, error) {
		controls := callerCtx[ControlsKey].(*Controls)
		assert.Equal(t, 1, controls.GetCurrentStep())
		assert.Equal(t, 2, controls.GetTotalSteps())
		assert.Len(t, controls.GetResults(), 1)
		assert.Equal(t, StatusRunning, controls.GetStatus())
		return nil, nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{{Agent: "a"}, {Agent: "b"}}, nil)
	assert.True(t, res.Success)
}

func TestRunner_Run_IterationCap(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("a", func(int, map[string]any) (any, error) {
		// Always jump back to self.
		return core.NextDirective(0), nil
	})
	runner := NewRunner(exec, func(o *Options) {
		o.Logger = logging.NoOpLogger{}
		o.MaxIterations = 10
	})

	res := runner.Run(context.Background(), []Step{{Agent: "a"}}, nil)

	assert.Equal(t, StatusFailed, res.Status)
	assert.False(t, res.Success)
	assert.Equal(t, 10, exec.calls["a"])
	require.NotEmpty(t, res.Results)
	last := res.Results[len(res.Results)-1]
	assert.False(t, last.Success)
	assert.Contains(t, last.Error, "exceeded 10 iterations")
}

func TestRunner_Run_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	exec := newScriptedExecutor()
	exec.on("a", func(int, map[string]any) (any, error) {
		cancel()
		return nil, nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(ctx, []Step{{Agent: "a"}, {Agent: "b"}}, nil)

	assert.Equal(t, StatusStopped, res.Status)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, 0, exec.calls["b"])
}

func TestRunner_Run_EmptySteps(t *testing.T) {
	runner := newTestRunner(newScriptedExecutor())

	res := runner.Run(context.Background(), nil, nil)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Steps)
}

func TestRunner_Run_NilExecutorResult(t *testing.T) {
	runner := newTestRunner(nilExecutor{})

	res := runner.Run(context.Background(), []Step{{Agent: "a"}}, nil)

	assert.Equal(t, StatusFailed, res.Status)
	require.Len(t, res.Results, 1)
	assert.Contains(t, res.Results[0].Error, "no result")
}

type nilExecutor struct{}

func (nilExecutor) ExecuteAgent(context.Context, string, map[string]any, map[string]any) *core.Result {
	return nil
}

type panicExecutor struct{}

func (panicExecutor) ExecuteAgent(context.Context, string, map[string]any, map[string]any) *core.Result {
	panic("executor bug")
}

func TestRunner_Run_PanickingExecutor(t *testing.T) {
	runner := newTestRunner(panicExecutor{})

	res := runner.Run(context.Background(), []Step{{Agent: "a"}}, nil)

	assert.Equal(t, StatusFailed, res.Status)
	require.Len(t, res.Results, 1)
	assert.Contains(t, res.Results[0].Error, "panicked")
}

func TestRunner_Run_UnrecognizedDirectiveFallsThrough(t *testing.T) {
	exec := newScriptedExecutor()
	exec.on("a", func(int, map[string]any) (any, error) {
		return map[string]any{
			"workflowControl": map[string]any{"action": "rewind"},
		}, nil
	})
	runner := newTestRunner(exec)

	res := runner.Run(context.Background(), []Step{{Agent: "a"}, {Agent: "b"}}, nil)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 2, res.Steps)
}

func TestRunner_Run_ResultKeysForEveryStep(t *testing.T) {
	exec := newScriptedExecutor()
	runner := newTestRunner(exec)

	shared := map[string]any{}
	steps := []Step{{Agent: "a"}, {Agent: "b"}, {Agent: "c"}}
	res := runner.Run(context.Background(), steps, shared)
	require.True(t, res.Success)

	for i, step := range steps {
		_, ok := shared[step.Agent+"_result"]
		assert.True(t, ok, step.Agent)
		_, ok = shared[fmt.Sprintf("step_%d_result", i)]
		assert.True(t, ok, i)
	}
}
