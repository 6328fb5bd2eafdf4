package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
	"github.com/hugo-lorenzo-mato/conductor/internal/logging"
	"github.com/hugo-lorenzo-mato/conductor/internal/workflow"
)

type askEvent struct {
	Message string `json:"message"`
}

func (askEvent) EventType() string { return "ask" }

type answerEvent struct {
	Message string `json:"message"`
}

func (answerEvent) EventType() string { return "answer" }

type tickEvent struct {
	N int `json:"n"`
}

func (tickEvent) EventType() string { return "tick" }

func newEventTypes() *events.Registry {
	r := events.NewRegistry()
	r.Register(&askEvent{})
	r.Register(&answerEvent{})
	r.Register(&tickEvent{})
	return r
}

func echoWorkflow() workflow.Workflow {
	return workflow.NewDefinition("echo",
		func(_ context.Context, _ *workflow.Context, start events.Event) (events.Event, error) {
			msg := ""
			if ask, ok := start.(*askEvent); ok {
				msg = ask.Message
			}
			return &answerEvent{Message: msg}, nil
		},
		workflow.WithStartEventType(&askEvent{}),
		workflow.WithStopEventType(&answerEvent{}),
	)
}

// waiterWorkflow checkpoints once, then blocks until an event is injected
// or the run is cancelled.
func waiterWorkflow() workflow.Workflow {
	return workflow.NewDefinition("waiter",
		func(ctx context.Context, c *workflow.Context, _ events.Event) (events.Event, error) {
			c.Set("phase", "waiting")
			c.Emit(events.NewStepStateChanged("gather", events.StepStateNotRunning))
			ev, err := c.WaitForEvent(ctx, "gather")
			if err != nil {
				return nil, err
			}
			msg := ""
			if ask, ok := ev.(*askEvent); ok {
				msg = ask.Message
			}
			return &answerEvent{Message: msg}, nil
		},
		workflow.WithStopEventType(&answerEvent{}),
	)
}

func newTestServer(t *testing.T, st core.WorkflowStore, workflows ...workflow.Workflow) *Server {
	t.Helper()
	reg := workflow.NewRegistry()
	reg.Register("echo", echoWorkflow())
	for _, wf := range workflows {
		if d, ok := wf.(*workflow.Definition); ok {
			reg.Register(d.Name(), d)
		}
	}

	opts := []Option{WithLogger(logging.NewNop().Logger)}
	if st != nil {
		opts = append(opts, WithStore(st))
	}
	return New(reg, newEventTypes(), opts...)
}

func waitResult(t *testing.T, s *Server, id string) events.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		result, done, err := s.GetResult(context.Background(), id)
		if err != nil {
			t.Fatalf("GetResult(%s) error = %v", id, err)
		}
		if done {
			return result
		}
		if time.Now().After(deadline) {
			t.Fatalf("run %s never finished", id)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartThenGetResult(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	id, err := s.Start(context.Background(), "echo", StartOptions{
		StartEvent: &askEvent{Message: "hi"},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(id) != 10 {
		t.Errorf("handler id %q should be 10 characters", id)
	}

	result := waitResult(t, s, id)
	if answer := result.(*answerEvent); answer.Message != "hi" {
		t.Errorf("result = %+v, want message hi", answer)
	}
}

func TestRunAndWaitMatchesDirectRun(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	viaServer, _, err := s.RunAndWait(context.Background(), "echo", StartOptions{
		StartEvent: &askEvent{Message: "same"},
	})
	if err != nil {
		t.Fatalf("RunAndWait() error = %v", err)
	}

	h, err := echoWorkflow().Run(context.Background(),
		workflow.WithStartEvent(&askEvent{Message: "same"}))
	if err != nil {
		t.Fatalf("direct Run() error = %v", err)
	}
	direct, err := h.Result(context.Background())
	if err != nil {
		t.Fatalf("direct Result() error = %v", err)
	}

	if viaServer.(*answerEvent).Message != direct.(*answerEvent).Message {
		t.Errorf("server result %+v differs from direct result %+v", viaServer, direct)
	}
}

func TestStartUnknownWorkflow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	_, err := s.Start(context.Background(), "missing", StartOptions{})
	if !core.IsCategory(err, core.ErrCatNotFound) {
		t.Fatalf("Start(missing) error = %v, want not_found", err)
	}

	if n := len(s.ListHandlers()); n != 0 {
		t.Errorf("failed start must not leave a record, found %d", n)
	}
}

func TestStartRejectsWrongStartEvent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	_, err := s.Start(context.Background(), "echo", StartOptions{
		StartEvent: &tickEvent{N: 1},
	})
	if !core.IsCategory(err, core.ErrCatValidation) {
		t.Fatalf("Start() error = %v, want validation", err)
	}
	if n := len(s.ListHandlers()); n != 0 {
		t.Errorf("failed start must not leave a record, found %d", n)
	}
}

func TestGetResultNotReadyAndExecutionError(t *testing.T) {
	t.Parallel()
	failing := workflow.NewDefinition("bomb",
		func(context.Context, *workflow.Context, events.Event) (events.Event, error) {
			return nil, core.ErrExecution("kaboom")
		},
	)
	s := newTestServer(t, nil, failing)

	// Unknown handler.
	if _, _, err := s.GetResult(context.Background(), "nope"); !core.IsCategory(err, core.ErrCatNotFound) {
		t.Errorf("GetResult(unknown) error = %v, want not_found", err)
	}

	id, err := s.Start(context.Background(), "bomb", StartOptions{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, done, err := s.GetResult(context.Background(), id)
		if done {
			if !core.IsCategory(err, core.ErrCatExecution) {
				t.Fatalf("GetResult error = %v, want execution", err)
			}
			if !strings.Contains(err.Error(), "kaboom") {
				t.Errorf("execution error should carry the cause: %v", err)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHandlerIDShape(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := newHandlerID()
		if len(id) != idLength {
			t.Fatalf("id %q has length %d, want %d", id, len(id), idLength)
		}
		for _, r := range id {
			if !strings.ContainsRune(idAlphabet, r) {
				t.Fatalf("id %q contains %q outside the alphabet", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q within 1000 draws", id)
		}
		seen[id] = true
	}
}
