package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResult_Defaults(t *testing.T) {
	res := NewResult("agent", nil)

	assert.Equal(t, "agent", res.Agent)
	assert.Equal(t, "default", res.Action)
	assert.NotEmpty(t, res.CallID)
	assert.False(t, res.Timestamp.IsZero())
	assert.False(t, res.Success)
}

func TestNewResult_ActionFromParams(t *testing.T) {
	res := NewResult("agent", map[string]any{"action": "scan"})
	assert.Equal(t, "scan", res.Action)
}

func TestResult_SucceedAndFail(t *testing.T) {
	res := NewResult("agent", nil).Succeed(map[string]any{"ok": true})
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)

	res.Fail(errors.New("boom"))
	assert.False(t, res.Success)
	assert.Equal(t, "boom", res.Error)
}

func TestExecContext_Precedence(t *testing.T) {
	config := map[string]any{"key": "config", "configOnly": 1}
	caller := map[string]any{"key": "caller", "callerOnly": 2}
	deps := map[string]any{"key": "dep", "depOnly": 3}

	ec := NewExecContext(config, caller, deps, nil)

	v, ok := ec.Value("key")
	require.True(t, ok)
	assert.Equal(t, "dep", v)

	for key, want := range map[string]any{"configOnly": 1, "callerOnly": 2, "depOnly": 3} {
		v, ok := ec.Value(key)
		require.True(t, ok, key)
		assert.Equal(t, want, v, key)
	}
}

func TestExecContext_SetAndValues(t *testing.T) {
	ec := NewExecContext(nil, nil, nil, nil)
	ec.Set("k", "v")

	v, ok := ec.Value("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	snapshot := ec.Values()
	snapshot["k"] = "mutated"

	v, _ = ec.Value("k")
	assert.Equal(t, "v", v, "Values must return a copy")
}

type fakeOrchestrator struct{}

func (fakeOrchestrator) ExecuteAgent(ctx context.Context, name string, params map[string]any, callerCtx map[string]any) *Result {
	return NewResult(name, params).Succeed("ran")
}

func (fakeOrchestrator) GetAgent(name string) (AgentHandle, error) {
	return nil, &NotRegisteredError{Agent: name}
}

func TestExecContext_OrchestratorKeyAlwaysWins(t *testing.T) {
	orch := fakeOrchestrator{}
	ec := NewExecContext(nil, map[string]any{"orchestrator": "shadowed"}, nil, orch)

	v, ok := ec.Value("orchestrator")
	require.True(t, ok)
	assert.Equal(t, Orchestrator(orch), v)
}

func TestExecContext_BackReferenceExecute(t *testing.T) {
	ec := NewExecContext(nil, nil, nil, fakeOrchestrator{})

	res := ec.ExecuteAgent(context.Background(), "other", nil, nil)
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Equal(t, "ran", res.Result)
}

func TestExecContext_BackReferenceWithoutOrchestrator(t *testing.T) {
	ec := NewExecContext(nil, nil, nil, nil)

	res := ec.ExecuteAgent(context.Background(), "other", nil, nil)
	require.NotNil(t, res)
	assert.False(t, res.Success)

	_, err := ec.GetAgent("other")
	assert.True(t, IsNotRegistered(err))
}

func TestDirectiveFrom_TypedValueAndPointer(t *testing.T) {
	d, ok := DirectiveFrom(NextDirective(2))
	require.True(t, ok)
	assert.Equal(t, DirectiveNext, d.Action)
	assert.Equal(t, 2, d.TargetStep)

	p := StopDirective("done")
	d, ok = DirectiveFrom(&p)
	require.True(t, ok)
	assert.Equal(t, DirectiveStop, d.Action)
	assert.Equal(t, "done", d.Reason)
}

func TestDirectiveFrom_MapPayload(t *testing.T) {
	d, ok := DirectiveFrom(map[string]any{
		"workflowControl": map[string]any{"action": "next", "targetStep": 0},
	})
	require.True(t, ok)
	assert.Equal(t, DirectiveNext, d.Action)
	assert.Equal(t, 0, d.TargetStep)
}

func TestDirectiveFrom_MapPayloadFloatTarget(t *testing.T) {
	// JSON-decoded payloads carry numbers as float64.
	d, ok := DirectiveFrom(map[string]any{
		"workflowControl": map[string]any{"action": "next", "targetStep": float64(3)},
	})
	require.True(t, ok)
	assert.Equal(t, 3, d.TargetStep)
}

func TestDirectiveFrom_MapPayloadNoTarget(t *testing.T) {
	d, ok := DirectiveFrom(map[string]any{
		"workflowControl": map[string]any{"action": "pause", "reason": "operator"},
	})
	require.True(t, ok)
	assert.Equal(t, DirectivePause, d.Action)
	assert.Equal(t, -1, d.TargetStep)
	assert.Equal(t, "operator", d.Reason)
}

func TestDirectiveFrom_NonDirectivePayloads(t *testing.T) {
	for _, payload := range []any{
		nil,
		"plain string",
		map[string]any{"success": true},
		map[string]any{"workflowControl": "not a map"},
	} {
		_, ok := DirectiveFrom(payload)
		assert.False(t, ok)
	}
}

func TestErrors_Messages(t *testing.T) {
	assert.EqualError(t, &NotRegisteredError{Agent: "x"}, "agent x is not registered")

	berr := &BootstrapError{Agent: "x", Err: errors.New("db down")}
	assert.Contains(t, berr.Error(), "db down")
	assert.Equal(t, "db down", errors.Unwrap(berr).Error())

	eerr := &ExecuteError{Agent: "x", Err: errors.New("boom")}
	assert.Contains(t, eerr.Error(), "boom")
	assert.Equal(t, "boom", errors.Unwrap(eerr).Error())
}
