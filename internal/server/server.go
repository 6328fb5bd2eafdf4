// Package server hosts workflow executions: it starts runs, pumps their
// event streams into per-run buffers, checkpoints their state through the
// persistence port, answers result and status queries, and resumes
// interrupted runs at startup.
package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
	"github.com/hugo-lorenzo-mato/conductor/internal/workflow"
)

// Server owns every active workflow invocation. One Server instance is
// shared by all transport handlers; there are no package-level singletons.
type Server struct {
	registry *workflow.Registry
	events   *events.Registry
	store    core.WorkflowStore
	logger   *slog.Logger

	mu sync.RWMutex
	// records grows for the lifetime of the process: completed runs stay
	// queryable and are never evicted. Bound it with an external reaper
	// if a deployment starts tens of thousands of runs.
	records map[string]*runRecord
}

// runRecord tracks one invocation: its handle, the buffer its events are
// pumped into, and the pump goroutine's completion signal.
type runRecord struct {
	id           string
	workflowName string
	handler      *workflow.Handler
	queue        *events.Queue
	pumpDone     chan struct{}
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets the persistence backend. Defaults to a store that
// persists nothing.
func WithStore(store core.WorkflowStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a workflow server over a populated workflow registry and
// the event codec registry shared with the transport layer.
func New(registry *workflow.Registry, eventTypes *events.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		events:   eventTypes,
		store:    nopStore{},
		logger:   slog.Default(),
		records:  make(map[string]*runRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the workflow registry.
func (s *Server) Registry() *workflow.Registry {
	return s.registry
}

// EventTypes returns the event codec registry.
func (s *Server) EventTypes() *events.Registry {
	return s.events
}

// StartOptions carries the optional inputs of one invocation.
type StartOptions struct {
	StartEvent events.Event
	Snapshot   map[string]any
	Params     map[string]any
}

// Start launches a workflow invocation and returns its handler ID without
// waiting for completion.
func (s *Server) Start(ctx context.Context, name string, opts StartOptions) (string, error) {
	wf, err := s.registry.Lookup(name)
	if err != nil {
		return "", err
	}

	if opts.StartEvent != nil && wf.StartEventType() != "" &&
		opts.StartEvent.EventType() != wf.StartEventType() {
		return "", core.ErrValidation(core.CodeBadStartEvent,
			"start event type "+opts.StartEvent.EventType()+
				" does not match workflow "+name)
	}

	handler, err := wf.Run(ctx,
		workflow.WithStartEvent(opts.StartEvent),
		workflow.WithSnapshot(opts.Snapshot),
		workflow.WithParams(opts.Params),
	)
	if err != nil {
		return "", err
	}

	id := newHandlerID()
	s.attach(id, name, handler)
	return id, nil
}

// RunAndWait launches a workflow invocation and blocks until it finishes,
// returning the stop event. The run is tracked like any other: its events
// stream and its state checkpoints while the caller waits.
func (s *Server) RunAndWait(ctx context.Context, name string, opts StartOptions) (events.Event, string, error) {
	id, err := s.Start(ctx, name, opts)
	if err != nil {
		return nil, "", err
	}

	rec := s.record(id)
	result, err := rec.handler.Result(ctx)
	if err != nil {
		return nil, id, core.ErrExecution(err.Error()).WithCause(err)
	}
	return result, id, nil
}

// attach registers a record under an ID and starts its pump.
func (s *Server) attach(id, workflowName string, handler *workflow.Handler) {
	rec := &runRecord{
		id:           id,
		workflowName: workflowName,
		handler:      handler,
		queue:        events.NewQueue(),
		pumpDone:     make(chan struct{}),
	}

	s.mu.Lock()
	s.records[id] = rec
	s.mu.Unlock()

	go s.pump(rec)
}

func (s *Server) record(id string) *runRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

// pump drains the invocation's event stream into the record's buffer,
// checkpointing the execution context at every step-quiescence boundary,
// and writes the final status when the stream ends.
func (s *Server) pump(rec *runRecord) {
	defer close(rec.pumpDone)
	ctx := context.Background()

	for ev := range rec.handler.Events() {
		if sc, ok := ev.(*events.StepStateChanged); ok && sc.State == events.StepStateNotRunning {
			err := s.store.Update(ctx, core.PersistedHandler{
				HandlerID:    rec.id,
				WorkflowName: rec.workflowName,
				Status:       core.StatusRunning,
				Ctx:          rec.handler.Context().Snapshot(),
			})
			if err != nil {
				// Best-effort: a lost checkpoint never aborts the run.
				s.logger.Warn("checkpoint write failed",
					"handler_id", rec.id, "error", err)
			}
		}
		rec.queue.Push(ev)
	}

	_, err := rec.handler.Result(ctx)
	status := core.StatusCompleted
	if err != nil {
		status = core.StatusFailed
	}

	if err := s.store.Update(ctx, core.PersistedHandler{
		HandlerID:    rec.id,
		WorkflowName: rec.workflowName,
		Status:       status,
		Ctx:          rec.handler.Context().Snapshot(),
	}); err != nil {
		s.logger.Warn("final state write failed",
			"handler_id", rec.id, "status", status, "error", err)
	}

	s.logger.Info("workflow run finished",
		"handler_id", rec.id, "workflow", rec.workflowName, "status", status)
}

// nopStore is the default persistence backend: nothing survives.
type nopStore struct{}

func (nopStore) Query(context.Context, core.HandlerQuery) ([]core.PersistedHandler, error) {
	return nil, nil
}

func (nopStore) Update(context.Context, core.PersistedHandler) error {
	return nil
}
