package server

import (
	"context"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
)

// StreamEvents returns a channel of the run's events, starting from
// whatever is still buffered and following the stream live until the run
// finishes and the buffer is empty, at which point the channel closes.
// Each call gets its own cursor. Concurrent calls for the same handler
// compete for events — each event reaches exactly one of them — so the
// supported contract is a single consumer per handler at a time.
func (s *Server) StreamEvents(ctx context.Context, handlerID string) (<-chan events.Event, error) {
	rec := s.record(handlerID)
	if rec == nil {
		return nil, core.ErrNotFound("handler", handlerID)
	}

	out := make(chan events.Event)
	go func() {
		defer close(out)
		for {
			for _, ev := range rec.queue.DrainAll() {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}

			// Wait for the next push and the pump finishing as one
			// race; registering them together closes the window where
			// the run ends between a drain and a wait.
			select {
			case <-rec.queue.Wake():
			case <-rec.pumpDone:
				for _, ev := range rec.queue.DrainAll() {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
