package core

import (
	"time"

	"github.com/google/uuid"
)

// Result is the normalized envelope returned by every agent execution.
// Public callers never see raw errors; failure is expressed as
// Success=false plus a message in Error.
type Result struct {
	Success   bool      `json:"success"`
	Agent     string    `json:"agent"`
	Action    string    `json:"action"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewResult creates an envelope skeleton for an agent call. Action defaults
// to "default" when the params carry no "action" key.
func NewResult(agent string, params map[string]any) *Result {
	action := "default"
	if a, ok := params["action"].(string); ok && a != "" {
		action = a
	}
	return &Result{
		Agent:     agent,
		Action:    action,
		CallID:    uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// Succeed marks the envelope successful with the given payload.
func (r *Result) Succeed(payload any) *Result {
	r.Success = true
	r.Result = payload
	r.Error = ""
	return r
}

// Fail marks the envelope failed with the error's message.
func (r *Result) Fail(err error) *Result {
	r.Success = false
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// StepResult is a Result recorded at a specific position of a workflow run.
// Step is the index of the workflow step that produced it (execution order,
// not declaration order, is preserved by the enclosing results slice).
type StepResult struct {
	Result
	Step int `json:"step"`
}
