package core

// DirectiveAction enumerates the control signals an executing agent can
// return to redirect its own containing workflow.
type DirectiveAction string

const (
	// DirectiveNext jumps the workflow cursor to TargetStep (or to the
	// following step when TargetStep is unset).
	DirectiveNext DirectiveAction = "next"
	// DirectiveStop terminates the workflow after the current step.
	DirectiveStop DirectiveAction = "stop"
	// DirectivePause suspends the workflow after the current step; the
	// cursor advances so an external resume continues at the next step.
	DirectivePause DirectiveAction = "pause"
)

// Directive is the explicit control command a step agent returns alongside
// its result to alter the workflow's execution path. The runner pattern
// matches on Action; unrecognized actions fall back to the default
// step increment.
type Directive struct {
	Action DirectiveAction `json:"action"`
	// TargetStep is the jump destination for DirectiveNext. Negative means
	// unset (advance by one).
	TargetStep int    `json:"targetStep"`
	Reason     string `json:"reason,omitempty"`
}

// NextDirective builds a jump command to the given step index.
func NextDirective(target int) Directive {
	return Directive{Action: DirectiveNext, TargetStep: target}
}

// StopDirective builds a stop command with an optional reason.
func StopDirective(reason string) Directive {
	return Directive{Action: DirectiveStop, TargetStep: -1, Reason: reason}
}

// PauseDirective builds a pause command with an optional reason.
func PauseDirective(reason string) Directive {
	return Directive{Action: DirectivePause, TargetStep: -1, Reason: reason}
}

// DirectiveFrom extracts a control directive from a step's result payload.
// Two shapes are honored: a typed Directive (value or pointer) returned
// directly or nested under the "workflowControl" key of a map payload,
// and the map form {"action": ..., "targetStep": ..., "reason": ...} for
// agents assembling payloads dynamically (legacy agents in particular).
func DirectiveFrom(payload any) (Directive, bool) {
	switch v := payload.(type) {
	case Directive:
		return v, true
	case *Directive:
		if v != nil {
			return *v, true
		}
		return Directive{}, false
	case map[string]any:
		raw, ok := v["workflowControl"]
		if !ok {
			return Directive{}, false
		}
		return directiveFromValue(raw)
	default:
		return Directive{}, false
	}
}

func directiveFromValue(raw any) (Directive, bool) {
	switch v := raw.(type) {
	case Directive:
		return v, true
	case *Directive:
		if v != nil {
			return *v, true
		}
	case map[string]any:
		d := Directive{TargetStep: -1}
		action, _ := v["action"].(string)
		if action == "" {
			return Directive{}, false
		}
		d.Action = DirectiveAction(action)
		switch t := v["targetStep"].(type) {
		case int:
			d.TargetStep = t
		case float64:
			d.TargetStep = int(t)
		}
		if r, ok := v["reason"].(string); ok {
			d.Reason = r
		}
		return d, true
	}
	return Directive{}, false
}
