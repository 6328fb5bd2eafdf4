package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

// JSONFileStore keeps handler state in a single JSON file, rewritten
// atomically on every update. Suited to development setups where running
// a database is not worth it.
type JSONFileStore struct {
	path string

	mu       sync.RWMutex
	handlers map[string]core.PersistedHandler
}

// NewJSONFileStore loads the file at path, creating its directory if
// needed. A missing file starts the store empty.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &JSONFileStore{
		path:     path,
		handlers: make(map[string]core.PersistedHandler),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := json.Unmarshal(data, &s.handlers); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}
	return s, nil
}

// Query implements core.WorkflowStore.
func (s *JSONFileStore) Query(_ context.Context, q core.HandlerQuery) ([]core.PersistedHandler, error) {
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

// Update implements core.WorkflowStore. The whole file is rewritten via
// an atomic rename so a crash mid-write never corrupts it.
func (s *JSONFileStore) Update(_ context.Context, h core.PersistedHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[h.HandlerID] = h

	data, err := json.MarshalIndent(s.handlers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return core.ErrStorage("writing state file").WithCause(err)
	}
	return nil
}
