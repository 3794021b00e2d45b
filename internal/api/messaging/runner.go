package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Runner manages multiple workers and runs them concurrently.
type Runner struct {
	workers []Worker
	handler MessageHandler
}

// NewRunner creates a new runner with the given workers and handler.
func NewRunner(workers []Worker, handler MessageHandler) *Runner {
	return &Runner{
		workers: workers,
		handler: handler,
	}
}

// Start runs all workers concurrently and waits for them to finish.
// Returns when context is cancelled or any worker returns an error.
// Every worker is closed once its Start returns.
func (r *Runner) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i, w := range r.workers {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.ErrorContext(ctx, "Worker panic recovered",
						"worker_idx", i,
						"panic", rec,
						"stack", string(debug.Stack()))
					err = fmt.Errorf("worker %d panicked: %v", i, rec)
				}
				if closeErr := w.Close(); closeErr != nil {
					slog.ErrorContext(ctx, "Failed to close worker",
						"worker_idx", i,
						slog.Any("error", closeErr))
				}
			}()
			return w.Start(ctx, r.handler)
		})
	}

	return g.Wait()
}
