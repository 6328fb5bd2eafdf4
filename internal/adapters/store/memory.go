// Package store provides WorkflowStore implementations: a no-op store, an
// in-memory store, a SQLite-backed relational store, a Redis-backed store,
// and a JSON-file store.
package store

import (
	"context"
	"maps"
	"sync"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

// NopStore persists nothing. Queries return no rows and updates are
// discarded; runs do not survive a restart.
type NopStore struct{}

// NewNopStore creates a no-op store.
func NewNopStore() *NopStore { return &NopStore{} }

// Query implements core.WorkflowStore.
func (*NopStore) Query(context.Context, core.HandlerQuery) ([]core.PersistedHandler, error) {
	return nil, nil
}

// Update implements core.WorkflowStore.
func (*NopStore) Update(context.Context, core.PersistedHandler) error {
	return nil
}

// MemoryStore keeps handler state in a map. It survives nothing but gives
// tests and single-process setups real query semantics.
type MemoryStore struct {
	mu       sync.RWMutex
	handlers map[string]core.PersistedHandler
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{handlers: make(map[string]core.PersistedHandler)}
}

// Query implements core.WorkflowStore.
func (s *MemoryStore) Query(_ context.Context, q core.HandlerQuery) ([]core.PersistedHandler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.PersistedHandler
	for _, h := range s.handlers {
		if q.Matches(h) {
			out = append(out, h)
		}
	}
	return out, nil
}

// Update implements core.WorkflowStore.
func (s *MemoryStore) Update(_ context.Context, h core.PersistedHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy the snapshot so later caller mutations don't leak in.
	stored := h
	stored.Ctx = make(map[string]any, len(h.Ctx))
	maps.Copy(stored.Ctx, h.Ctx)
	s.handlers[h.HandlerID] = stored
	return nil
}
