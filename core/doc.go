// Package core contains the shared contracts and value types of the
// orchestration engine: the agent module contract consumed by the loader,
// the per-call execution context handed to agents, the normalized result
// envelopes returned by every public operation, the workflow control
// directive agents may return to redirect their containing workflow, and
// the error taxonomy surfaced by the loader and executor.
//
// Higher-level packages (agent, orchestrator, workflow) depend on core;
// core depends on nothing but the standard library and uuid.
package core
