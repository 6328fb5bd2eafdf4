package server

import (
	"context"
	"sort"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

// GetResult reports a run's outcome. done is false while the run is in
// flight; once done, result holds the stop event or err the execution
// failure. Results are cached by the handle, so repeated polls after
// completion are cheap.
func (s *Server) GetResult(ctx context.Context, handlerID string) (result events.Event, done bool, err error) {
	rec := s.record(handlerID)
	if rec == nil {
		return nil, false, core.ErrNotFound("handler", handlerID)
	}

	if !rec.handler.Done() {
		return nil, false, nil
	}

	result, resErr := rec.handler.Result(ctx)
	if resErr != nil {
		return nil, true, core.ErrExecution(resErr.Error()).WithCause(resErr)
	}
	return result, true, nil
}

// HandlerSummary is a non-blocking status snapshot of one run.
type HandlerSummary struct {
	HandlerID    string
	WorkflowName string
	Status       core.Status
	Result       events.Event
	Error        string
}

// ListHandlers snapshots every known run. It never blocks: in-flight runs
// report running without touching their result.
func (s *Server) ListHandlers() []HandlerSummary {
	s.mu.RLock()
	records := make([]*runRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].id < records[j].id })

	out := make([]HandlerSummary, 0, len(records))
	for _, rec := range records {
		summary := HandlerSummary{
			HandlerID:    rec.id,
			WorkflowName: rec.workflowName,
			Status:       core.StatusRunning,
		}
		if rec.handler.Done() {
			result, err := rec.handler.Result(context.Background())
			if err != nil {
				summary.Status = core.StatusFailed
				summary.Error = err.Error()
			} else {
				summary.Status = core.StatusCompleted
				summary.Result = result
			}
		}
		out = append(out, summary)
	}
	return out
}

// PostEvent decodes an external event and forwards it into a running
// invocation, targeted at one step or broadcast to all waiting steps.
func (s *Server) PostEvent(_ context.Context, handlerID string, raw []byte, step string) error {
	rec := s.record(handlerID)
	if rec == nil {
		return core.ErrNotFound("handler", handlerID)
	}
	if rec.handler.Done() {
		return core.ErrConflict(core.CodeAlreadyCompleted, "workflow already completed")
	}

	ev, err := s.events.Decode(raw)
	if err != nil {
		return err
	}
	return rec.handler.Context().SendEvent(ev, step)
}
