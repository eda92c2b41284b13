// Package capability defines the call contracts of the external
// collaborators the orchestration core consumes through injected
// dependencies: screen capture, OCR, LLM completion and service routing.
// The core treats all of them as opaque async operations returning plain
// data; concrete implementations live with the host (or in the provider
// subpackages for LLMs).
package capability

import "context"

// ScreenCapture produces a raw image of the current screen.
type ScreenCapture interface {
	Capture(ctx context.Context) ([]byte, error)
}

// OCR extracts text from a captured image.
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// LLM completes a prompt into text. Options are provider-interpreted
// (model, temperature, max tokens, system prompt, ...).
type LLM interface {
	Complete(ctx context.Context, prompt string, opts map[string]any) (string, error)

	// Info returns metadata describing the backing provider.
	Info() Info
}

// Info carries provider metadata for logging and introspection.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// ServiceCaller routes an action to a named external service (MCP layer,
// automation drivers) and returns its response payload.
type ServiceCaller interface {
	Call(ctx context.Context, service, action string, payload map[string]any) (map[string]any, error)
}

// Func adapts a plain Go function into an injectable capability. Agents
// receive the Func itself from their execution context and invoke it
// directly.
type Func func(ctx context.Context, args map[string]any) (any, error)

// NewFunc is a readability helper for registering function capabilities.
func NewFunc(fn func(ctx context.Context, args map[string]any) (any, error)) Func {
	return Func(fn)
}
