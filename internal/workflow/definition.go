package workflow

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

// mainStep is the step name reported for a function-backed definition's
// single unit of work.
const mainStep = "main"

// RunFunc is the body of a function-backed workflow. It receives the
// invocation context and the start event (nil when the workflow was
// started without one) and returns the stop event.
type RunFunc func(ctx context.Context, c *Context, start events.Event) (events.Event, error)

// Definition is a function-backed Workflow. It declares its start and
// stop event types through prototype events and runs its body as a single
// step, emitting the step transitions the server checkpoints on.
type Definition struct {
	name      string
	startType string
	stopType  string
	fn        RunFunc
}

// DefinitionOption configures a Definition.
type DefinitionOption func(*Definition)

// WithStartEventType declares the start event via a prototype.
func WithStartEventType(proto events.Event) DefinitionOption {
	return func(d *Definition) {
		d.startType = proto.EventType()
	}
}

// WithStopEventType declares the stop event via a prototype.
func WithStopEventType(proto events.Event) DefinitionOption {
	return func(d *Definition) {
		d.stopType = proto.EventType()
	}
}

// NewDefinition creates a function-backed workflow definition.
func NewDefinition(name string, fn RunFunc, opts ...DefinitionOption) *Definition {
	d := &Definition{name: name, fn: fn}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the definition's name.
func (d *Definition) Name() string { return d.name }

// StartEventType implements Workflow.
func (d *Definition) StartEventType() string { return d.startType }

// StopEventType implements Workflow.
func (d *Definition) StopEventType() string { return d.stopType }

// Run implements Workflow. The invocation runs on its own goroutine until
// the body returns or the handle is cancelled.
func (d *Definition) Run(ctx context.Context, opts ...RunOption) (*Handler, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.startEvent != nil && d.startType != "" && cfg.startEvent.EventType() != d.startType {
		return nil, core.ErrValidation(core.CodeBadStartEvent,
			fmt.Sprintf("workflow %q starts with %q, got %q",
				d.name, d.startType, cfg.startEvent.EventType()))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	wc := NewContext(cfg.snapshot, cfg.params)
	h := newHandler(wc, cancel)

	go func() {
		h.emit(events.NewStepStateChanged(mainStep, events.StepStateRunning))
		result, err := d.fn(runCtx, wc, cfg.startEvent)
		h.emit(events.NewStepStateChanged(mainStep, events.StepStateNotRunning))
		if err == nil && result != nil {
			h.emit(result)
		}
		h.finish(result, err)
	}()

	return h, nil
}
