package workflow

import (
	"context"
	"sync"

	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

// Handler is the handle for one workflow invocation: an awaitable result,
// a stream of the invocation's events, the live context, and cancellation.
type Handler struct {
	ctx    *Context
	cancel context.CancelFunc
	stream chan events.Event
	done   chan struct{}

	mu     sync.Mutex
	result events.Event
	err    error
}

func newHandler(wc *Context, cancel context.CancelFunc) *Handler {
	h := &Handler{
		ctx:    wc,
		cancel: cancel,
		stream: make(chan events.Event, inboxSize),
		done:   make(chan struct{}),
	}
	wc.setEmitter(h.emit)
	return h
}

// Events returns the invocation's event stream, internal bookkeeping
// events included. The channel is closed once the invocation finishes.
func (h *Handler) Events() <-chan events.Event {
	return h.stream
}

// Context returns the invocation's live context.
func (h *Handler) Context() *Context {
	return h.ctx
}

// Done reports without blocking whether the invocation has finished.
func (h *Handler) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result blocks until the invocation finishes and returns its stop event
// or failure. The result is cached; repeated calls return the same value.
func (h *Handler) Result(ctx context.Context) (events.Event, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Cancel aborts the invocation. The event stream ends shortly after;
// cancelling a finished invocation is a no-op.
func (h *Handler) Cancel() {
	h.cancel()
}

// emit delivers an event to the stream. Events emitted after the
// invocation finished are dropped.
func (h *Handler) emit(ev events.Event) {
	select {
	case <-h.done:
	case h.stream <- ev:
	}
}

func (h *Handler) finish(result events.Event, err error) {
	h.mu.Lock()
	h.result = result
	h.err = err
	h.mu.Unlock()
	close(h.stream)
	close(h.done)
}
