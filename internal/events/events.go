// Package events defines the domain events produced by workflow
// executions, the wire codec for sending them over HTTP, and the FIFO
// queue that buffers them between a run's pump goroutine and its stream
// consumers.
package events

import "time"

// Event is a tagged value produced by a workflow execution. The type tag
// identifies a decoder in the codec registry; payloads of unregistered
// types are rejected at the wire boundary.
type Event interface {
	EventType() string
}

// StepState describes whether a unit of work is currently executing.
type StepState string

const (
	StepStateRunning    StepState = "running"
	StepStateNotRunning StepState = "not_running"
)

// StepStateChanged signals that a workflow step transitioned between
// states. A transition to StepStateNotRunning marks a quiescence point:
// the server snapshots the execution context and checkpoints it.
type StepStateChanged struct {
	Step  string    `json:"step"`
	State StepState `json:"state"`
	At    time.Time `json:"at"`
}

// EventType implements Event.
func (StepStateChanged) EventType() string { return "step_state_changed" }

// NewStepStateChanged creates a step transition event stamped with the
// current time.
func NewStepStateChanged(step string, state StepState) *StepStateChanged {
	return &StepStateChanged{Step: step, State: state, At: time.Now().UTC()}
}
