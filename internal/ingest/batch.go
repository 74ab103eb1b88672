package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tickersense/internal/clock"
)

// BatchConfig bounds a batched fan-out.
type BatchConfig struct {
	Size        int           // Items per batch; <= 0 runs everything as one batch
	Pause       time.Duration // Sleep between consecutive batches
	Concurrency int           // Tasks in flight within a batch; <= 0 is unbounded
}

// Outcome is the result of one task.
type Outcome[T any] struct {
	Item T
	Err  error
}

// RunBatches calls fn for every item. Items within a batch run concurrently
// and complete in any order; batch N+1 starts only after batch N has fully
// joined. A task error is recorded in its Outcome and never cancels siblings.
// Cancelling ctx stops new batches; the outcomes gathered so far are returned.
func RunBatches[T any](ctx context.Context, clk clock.Clock, items []T, cfg BatchConfig, fn func(context.Context, T) error) []Outcome[T] {
	size := cfg.Size
	if size <= 0 {
		size = len(items)
	}

	outcomes := make([]Outcome[T], 0, len(items))
	for start := 0; start < len(items); start += size {
		if start > 0 && cfg.Pause > 0 {
			select {
			case <-ctx.Done():
				return outcomes
			case <-clk.After(cfg.Pause):
			}
		}
		if ctx.Err() != nil {
			return outcomes
		}

		batch := items[start:min(start+size, len(items))]
		results := make([]Outcome[T], len(batch))

		var g errgroup.Group
		if cfg.Concurrency > 0 {
			g.SetLimit(cfg.Concurrency)
		}
		for i, item := range batch {
			g.Go(func() error {
				results[i] = Outcome[T]{Item: item, Err: fn(ctx, item)}
				return nil
			})
		}
		_ = g.Wait()

		outcomes = append(outcomes, results...)
	}
	return outcomes
}
