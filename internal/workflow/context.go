package workflow

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

// inboxSize bounds how many injected events a step can hold unconsumed.
const inboxSize = 64

// Context carries a running invocation's state. State survives restarts
// through Snapshot; everything else is rebuilt when the workflow resumes.
type Context struct {
	mu      sync.RWMutex
	state   map[string]any
	params  map[string]any
	inboxes map[string]chan events.Event
	emit    func(events.Event)
}

// NewContext creates a context, optionally seeded from a snapshot.
func NewContext(snapshot, params map[string]any) *Context {
	state := make(map[string]any)
	maps.Copy(state, snapshot)
	return &Context{
		state:   state,
		params:  params,
		inboxes: make(map[string]chan events.Event),
	}
}

// Get reads a state value.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.state[key]
	return v, ok
}

// Set writes a state value. Values must be JSON-serializable; they end up
// in the persisted snapshot.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[key] = value
}

// Param reads a run keyword argument.
func (c *Context) Param(key string) (any, bool) {
	v, ok := c.params[key]
	return v, ok
}

// Snapshot returns a copy of the state document.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.state))
	maps.Copy(out, c.state)
	return out
}

// Emit writes an event to the invocation's stream. Safe to call only from
// the running workflow; emissions after completion are dropped.
func (c *Context) Emit(ev events.Event) {
	c.mu.RLock()
	emit := c.emit
	c.mu.RUnlock()
	if emit != nil {
		emit(ev)
	}
}

func (c *Context) setEmitter(emit func(events.Event)) {
	c.mu.Lock()
	c.emit = emit
	c.mu.Unlock()
}

// SendEvent injects an external event into the invocation. With a step
// name the event goes to that step's inbox and fails if no such step is
// waiting; without one it is broadcast to every waiting step.
func (c *Context) SendEvent(ev events.Event, step string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if step != "" {
		inbox, ok := c.inboxes[step]
		if !ok {
			return core.ErrValidation(core.CodeBadEvent,
				fmt.Sprintf("no step %q is waiting for events", step))
		}
		return deliver(inbox, ev, step)
	}

	for name, inbox := range c.inboxes {
		if err := deliver(inbox, ev, name); err != nil {
			return err
		}
	}
	return nil
}

func deliver(inbox chan events.Event, ev events.Event, step string) error {
	select {
	case inbox <- ev:
		return nil
	default:
		return core.ErrConflict("INBOX_FULL",
			fmt.Sprintf("step %q has too many undelivered events", step))
	}
}

// WaitForEvent blocks until an external event is delivered to the named
// step or the context is done. Calling it registers the step as an
// injection target.
func (c *Context) WaitForEvent(ctx context.Context, step string) (events.Event, error) {
	c.mu.Lock()
	inbox, ok := c.inboxes[step]
	if !ok {
		inbox = make(chan events.Event, inboxSize)
		c.inboxes[step] = inbox
	}
	c.mu.Unlock()

	select {
	case ev := <-inbox:
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
