package cmd

import (
	"context"

	"github.com/hugo-lorenzo-mato/conductor/internal/events"
	"github.com/hugo-lorenzo-mato/conductor/internal/workflow"
)

// MessageEvent carries a free-form text payload.
type MessageEvent struct {
	Message string `json:"message"`
}

func (MessageEvent) EventType() string { return "message" }

// ApprovalEvent is the external decision the approval demo waits for.
type ApprovalEvent struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment,omitempty"`
}

func (ApprovalEvent) EventType() string { return "approval" }

// DecisionEvent is the approval demo's outcome.
type DecisionEvent struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment,omitempty"`
}

func (DecisionEvent) EventType() string { return "decision" }

// registerDemoWorkflows installs small workflows for trying the server
// out without writing any code.
func registerDemoWorkflows(workflows *workflow.Registry, eventTypes *events.Registry) {
	eventTypes.Register(&MessageEvent{})
	eventTypes.Register(&ApprovalEvent{})
	eventTypes.Register(&DecisionEvent{})

	echo := workflow.NewDefinition("echo",
		func(_ context.Context, _ *workflow.Context, start events.Event) (events.Event, error) {
			msg := ""
			if m, ok := start.(*MessageEvent); ok {
				msg = m.Message
			}
			return &MessageEvent{Message: msg}, nil
		},
		workflow.WithStartEventType(&MessageEvent{}),
		workflow.WithStopEventType(&MessageEvent{}),
	)
	workflows.Register(echo.Name(), echo)

	// approval blocks at its review step until a decision is posted to
	// POST /events/{handler_id} with step "review".
	approval := workflow.NewDefinition("approval",
		func(ctx context.Context, c *workflow.Context, start events.Event) (events.Event, error) {
			if m, ok := start.(*MessageEvent); ok {
				c.Set("request", m.Message)
			}

			ev, err := c.WaitForEvent(ctx, "review")
			if err != nil {
				return nil, err
			}

			decision := &DecisionEvent{}
			if a, ok := ev.(*ApprovalEvent); ok {
				decision.Approved = a.Approved
				decision.Comment = a.Comment
			}
			return decision, nil
		},
		workflow.WithStartEventType(&MessageEvent{}),
		workflow.WithStopEventType(&DecisionEvent{}),
	)
	workflows.Register(approval.Name(), approval)
}
