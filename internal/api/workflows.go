package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/server"
)

// runRequest is the body accepted by the run and run-nowait routes. The
// start event, when present, is a wire envelope; context restores a prior
// state snapshot and kwargs become run parameters.
type runRequest struct {
	StartEvent json.RawMessage `json:"start_event,omitempty"`
	Context    map[string]any  `json:"context,omitempty"`
	Kwargs     map[string]any  `json:"kwargs,omitempty"`
}

// handleListWorkflows returns the registered workflow names.
func (s *Server) handleListWorkflows(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{
		"workflows": s.runtime.Registry().Names(),
	})
}

// decodeRunRequest parses the request body into start options. An empty
// body is valid and means "no start event, fresh context". The start
// event may be a tagged envelope or a bare payload of the workflow's
// declared start type.
func (s *Server) decodeRunRequest(r *http.Request, startType string) (server.StartOptions, error) {
	var req runRequest
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			return server.StartOptions{}, core.ErrValidation(core.CodeBadEvent,
				"malformed request body: "+err.Error())
		}
	}

	opts := server.StartOptions{
		Snapshot: req.Context,
		Params:   req.Kwargs,
	}
	if len(req.StartEvent) > 0 {
		ev, err := s.runtime.EventTypes().DecodeStart(startType, req.StartEvent)
		if err != nil {
			return server.StartOptions{}, err
		}
		opts.StartEvent = ev
	}
	return opts, nil
}

// handleRun starts a workflow and waits for its result.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	wf, err := s.runtime.Registry().Lookup(name)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	opts, err := s.decodeRunRequest(r, wf.StartEventType())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, _, err := s.runtime.RunAndWait(r.Context(), name, opts)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"result": result})
}

// handleRunNoWait starts a workflow and returns its handler ID.
func (s *Server) handleRunNoWait(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	wf, err := s.runtime.Registry().Lookup(name)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	opts, err := s.decodeRunRequest(r, wf.StartEventType())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	handlerID, err := s.runtime.Start(r.Context(), name, opts)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"handler_id": handlerID,
		"status":     "started",
	})
}

// handleSchema renders the JSON schema of a workflow's start and stop
// event types. A workflow without a declared type reports null for that
// side.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	wf, err := s.runtime.Registry().Lookup(name)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	start, err := s.schemaFor(wf.StartEventType())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	stop, err := s.schemaFor(wf.StopEventType())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]json.RawMessage{
		"start": start,
		"stop":  stop,
	})
}

func (s *Server) schemaFor(eventType string) (json.RawMessage, error) {
	if eventType == "" {
		return json.RawMessage("null"), nil
	}
	schema, err := s.runtime.EventTypes().Schema(eventType)
	if err != nil {
		// A declared but unregistered type is a server-side wiring
		// problem, not client input.
		return nil, core.ErrInternal("rendering schema for " + eventType + ": " + err.Error())
	}
	return schema, nil
}
