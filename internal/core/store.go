// Package core defines the domain types shared across the conductor
// server: run status, persisted handler state, the persistence port, and
// the error taxonomy.
package core

import (
	"context"
	"slices"
)

// Status describes the lifecycle state of a workflow run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// PersistedHandler is the durable record of one workflow run: its handler
// identifier, the workflow it belongs to, its status, and the serialized
// context snapshot used to resume it after a restart.
type PersistedHandler struct {
	HandlerID    string         `json:"handler_id"`
	WorkflowName string         `json:"workflow_name"`
	Status       Status         `json:"status"`
	Ctx          map[string]any `json:"ctx"`
}

// HandlerQuery filters persisted handlers. A nil slice matches everything
// for that dimension; an empty non-nil slice matches nothing. Dimensions
// combine with AND.
type HandlerQuery struct {
	HandlerIDIn    []string
	WorkflowNameIn []string
	StatusIn       []Status
}

// Matches reports whether a persisted handler satisfies the query.
func (q HandlerQuery) Matches(h PersistedHandler) bool {
	if q.HandlerIDIn != nil && !slices.Contains(q.HandlerIDIn, h.HandlerID) {
		return false
	}
	if q.WorkflowNameIn != nil && !slices.Contains(q.WorkflowNameIn, h.WorkflowName) {
		return false
	}
	if q.StatusIn != nil && !slices.Contains(q.StatusIn, h.Status) {
		return false
	}
	return true
}

// WorkflowStore is the persistence port for workflow run state. Update is
// an idempotent upsert keyed by handler ID. Query returns every record
// matching the filter. Implementations must be safe for concurrent use
// across distinct handler IDs; writes for the same ID arrive serially.
type WorkflowStore interface {
	Query(ctx context.Context, query HandlerQuery) ([]PersistedHandler, error)
	Update(ctx context.Context, handler PersistedHandler) error
}
