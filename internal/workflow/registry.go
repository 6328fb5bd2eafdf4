package workflow

import (
	"sort"
	"sync"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

// Registry maps workflow names to definitions. It is populated at startup
// before the server accepts traffic and read-only afterwards.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]Workflow
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{workflows: make(map[string]Workflow)}
}

// Register adds a workflow under a name. Registering an existing name
// overwrites it, so re-registration during development is idempotent.
func (r *Registry) Register(name string, wf Workflow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows[name] = wf
}

// Lookup resolves a workflow by name.
func (r *Registry) Lookup(name string) (Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, ok := r.workflows[name]
	if !ok {
		return nil, core.ErrNotFound("workflow", name)
	}
	return wf, nil
}

// Names returns the registered workflow names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.workflows))
	for name := range r.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
