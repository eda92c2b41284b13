// Package server exposes the orchestrator over HTTP for callers that run
// the engine as a standalone service rather than embedding it as a library.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agentpilot/agentpilot/logging"
	"github.com/agentpilot/agentpilot/orchestrator"
	"github.com/agentpilot/agentpilot/workflow"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	orch   *orchestrator.Orchestrator
	logger logging.Logger
}

// NewServer constructs a server over an orchestrator.
func NewServer(orch *orchestrator.Orchestrator, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Server{orch: orch, logger: logger}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/agents", s.listAgents)
		r.Get("/agents/{name}", s.getAgent)
		r.Post("/agents/{name}/execute", s.executeAgent)
		r.Post("/workflows/execute", s.executeWorkflow)
	})
	r.Get("/healthz", s.health)

	return r
}

type executeAgentRequest struct {
	Params  map[string]any `json:"params"`
	Context map[string]any `json:"context"`
}

type executeWorkflowRequest struct {
	Steps   []workflow.Step `json:"steps"`
	Context map[string]any  `json:"context"`
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"agents": s.orch.Agents()})
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	handle, err := s.orch.GetAgent(name)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"name":         handle.Name(),
		"description":  handle.Description(),
		"dependencies": handle.Dependencies(),
		"bootstrapped": handle.Bootstrapped(),
	})
}

// executeAgent always answers 200 with the result envelope: failure is a
// property of the envelope, not of the transport.
func (s *Server) executeAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req executeAgentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	res := s.orch.ExecuteAgent(r.Context(), name, req.Params, req.Context)
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) executeWorkflow(w http.ResponseWriter, r *http.Request) {
	var req executeWorkflowRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if len(req.Steps) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "steps must not be empty")
		return
	}

	res := s.orch.ExecuteWorkflow(r.Context(), req.Steps, req.Context)
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
