package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

// postEventRequest is the body of an event injection. The event field is
// a wire envelope; step optionally targets one waiting step, otherwise
// the event is broadcast to every waiting step.
type postEventRequest struct {
	Event json.RawMessage `json:"event"`
	Step  string          `json:"step,omitempty"`
}

// handlePostEvent injects an external event into a running invocation.
func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	handlerID := chi.URLParam(r, "handlerID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}

	var req postEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondDomainError(w, core.ErrValidation(core.CodeBadEvent,
			"malformed request body: "+err.Error()))
		return
	}
	if len(req.Event) == 0 {
		respondDomainError(w, core.ErrValidation(core.CodeBadEvent,
			"request body missing event"))
		return
	}

	if err := s.runtime.PostEvent(r.Context(), handlerID, req.Event, req.Step); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleStreamEvents streams a run's events until the run finishes or the
// client disconnects. The default framing is NDJSON, one envelope per
// line; ?sse=true switches to Server-Sent Events.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	handlerID := chi.URLParam(r, "handlerID")
	useSSE := r.URL.Query().Get("sse") == "true"

	stream, err := s.runtime.StreamEvents(r.Context(), handlerID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	if useSSE {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	} else {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range stream {
		payload, err := events.Encode(ev)
		if err != nil {
			s.logger.Error("failed to encode event", "handler_id", handlerID, "error", err)
			continue
		}

		if useSSE {
			fmt.Fprintf(w, "event: %s\n", ev.EventType())
			fmt.Fprintf(w, "data: %s\n\n", payload)
		} else {
			w.Write(payload)
			w.Write([]byte("\n"))
		}
		flusher.Flush()
	}
}
