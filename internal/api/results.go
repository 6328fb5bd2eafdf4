package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/server"
)

// handleGetResult polls a run's outcome. An in-flight run answers 202 so
// callers can poll without treating "not yet" as an error.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	handlerID := chi.URLParam(r, "handlerID")

	result, done, err := s.runtime.GetResult(r.Context(), handlerID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !done {
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"result": result})
}

// handlerView is the wire shape of one run summary.
type handlerView struct {
	HandlerID    string      `json:"handler_id"`
	WorkflowName string      `json:"workflow_name"`
	Status       core.Status `json:"status"`
	Result       any         `json:"result,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// handleListHandlers lists every known run.
func (s *Server) handleListHandlers(w http.ResponseWriter, _ *http.Request) {
	summaries := s.runtime.ListHandlers()

	views := make([]handlerView, 0, len(summaries))
	for _, sum := range summaries {
		views = append(views, viewOf(sum))
	}

	respondJSON(w, http.StatusOK, map[string][]handlerView{"handlers": views})
}

func viewOf(sum server.HandlerSummary) handlerView {
	v := handlerView{
		HandlerID:    sum.HandlerID,
		WorkflowName: sum.WorkflowName,
		Status:       sum.Status,
		Error:        sum.Error,
	}
	if sum.Result != nil {
		v.Result = sum.Result
	}
	return v
}
