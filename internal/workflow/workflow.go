// Package workflow defines the execution boundary the server manages:
// named workflow definitions, the handle representing one invocation, and
// the context a running workflow reads and writes. A small function-backed
// definition is included so the server can host real workflows without a
// step-graph engine behind it.
package workflow

import (
	"context"

	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

// Workflow is a named, long-running computation. Implementations declare
// the event types that start and stop them and produce a Handler per
// invocation. Definitions are immutable once registered.
type Workflow interface {
	// Run starts one invocation and returns its handle. The handle owns
	// the invocation's context, event stream, and cancellation.
	Run(ctx context.Context, opts ...RunOption) (*Handler, error)

	// StartEventType returns the registered type tag of the event that
	// starts this workflow.
	StartEventType() string

	// StopEventType returns the registered type tag of the event this
	// workflow resolves to.
	StopEventType() string
}

// RunOption configures one invocation.
type RunOption func(*runConfig)

type runConfig struct {
	startEvent events.Event
	snapshot   map[string]any
	params     map[string]any
}

// WithStartEvent supplies the event that starts the invocation.
func WithStartEvent(ev events.Event) RunOption {
	return func(c *runConfig) {
		c.startEvent = ev
	}
}

// WithSnapshot restores the invocation's context from a previously
// serialized state document.
func WithSnapshot(snapshot map[string]any) RunOption {
	return func(c *runConfig) {
		c.snapshot = snapshot
	}
}

// WithParams passes additional keyword arguments to the invocation.
func WithParams(params map[string]any) RunOption {
	return func(c *runConfig) {
		c.params = params
	}
}
