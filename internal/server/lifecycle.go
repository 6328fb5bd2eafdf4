package server

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
	"github.com/hugo-lorenzo-mato/conductor/internal/workflow"
)

// shutdownGrace bounds how long Close waits for pumps to wind down.
const shutdownGrace = 5 * time.Second

// Recover resumes every persisted run that was still running at the last
// shutdown. Each run restarts from its stored context snapshot and keeps
// its original handler ID.
func (s *Server) Recover(ctx context.Context) error {
	rows, err := s.store.Query(ctx, core.HandlerQuery{
		StatusIn:       []core.Status{core.StatusRunning},
		WorkflowNameIn: s.registry.Names(),
	})
	if err != nil {
		return fmt.Errorf("querying interrupted runs: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, row := range rows {
		g.Go(func() error {
			wf, err := s.registry.Lookup(row.WorkflowName)
			if err != nil {
				return err
			}
			handler, err := wf.Run(ctx, workflow.WithSnapshot(row.Ctx))
			if err != nil {
				return fmt.Errorf("resuming %s (%s): %w", row.HandlerID, row.WorkflowName, err)
			}
			s.attach(row.HandlerID, row.WorkflowName, handler)
			s.logger.Info("resumed interrupted run",
				"handler_id", row.HandlerID, "workflow", row.WorkflowName)
			return nil
		})
	}
	return g.Wait()
}

// Close cancels every live run and waits, bounded by a grace period, for
// their pumps to finish. Cancellation races with natural completion;
// either outcome is fine and none of it can block shutdown.
func (s *Server) Close() {
	s.mu.RLock()
	records := make([]*runRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	for _, rec := range records {
		if !rec.handler.Done() {
			rec.handler.Cancel()
		}
	}

	deadline := time.After(shutdownGrace)
	for _, rec := range records {
		select {
		case <-rec.pumpDone:
		case <-deadline:
			s.logger.Warn("shutdown grace period elapsed with pumps still draining")
			return
		}
	}
}
