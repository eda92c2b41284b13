package core

import (
	"errors"
	"fmt"
)

// ErrNoExecuteCode is the message reported by the safe fallback installed
// when a legacy agent supplies no compilable execute source.
const ErrNoExecuteCode = "No valid execute code provided"

// NotRegisteredError indicates a load was attempted for an agent name that
// has no registry entry. Fatal to that load call.
type NotRegisteredError struct {
	Agent string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("agent %s is not registered", e.Agent)
}

// MissingExportError indicates a registered source resolved to nothing
// loadable (e.g. a native registration carrying a nil module).
type MissingExportError struct {
	Agent string
}

func (e *MissingExportError) Error() string {
	return fmt.Sprintf("agent %s has no loadable module export", e.Agent)
}

// BootstrapError wraps a failure raised by an agent's one-time bootstrap.
// The instance stays un-bootstrapped so a later call may retry, up to the
// executor's retry budget.
type BootstrapError struct {
	Agent string
	Err   error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap of agent %s failed: %v", e.Agent, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// ExecuteError wraps a failure raised by an agent's execute call.
type ExecuteError struct {
	Agent string
	Err   error
}

func (e *ExecuteError) Error() string {
	return fmt.Sprintf("execute of agent %s failed: %v", e.Agent, e.Err)
}

func (e *ExecuteError) Unwrap() error { return e.Err }

// IsNotRegistered reports whether err (or anything it wraps) is a
// NotRegisteredError.
func IsNotRegistered(err error) bool {
	var target *NotRegisteredError
	return errors.As(err, &target)
}
