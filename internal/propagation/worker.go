package propagation

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkerPool bounds how many objects are propagated concurrently.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a pool of the given size; workers < 1 uses runtime.NumCPU().
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{workers: workers, logger: logger}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.workers }

// Run calls fn for every index in [0, n), at most Workers at a time, and waits
// for all of them. fn owns slot i of whatever result slice the caller keeps,
// so no locking is needed. Returns ctx's error when ctx was cancelled before
// every job was scheduled or finished.
func (wp *WorkerPool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	if n == 0 {
		return ctx.Err()
	}

	var g errgroup.Group
	g.SetLimit(wp.workers)

	scheduled := 0
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, i)
			return nil
		})
		scheduled++
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		wp.logger.Warn("propagation cancelled", "scheduled", scheduled, "jobs", n, "error", err)
		return err
	}
	return nil
}
