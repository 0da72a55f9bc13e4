package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EnrichmentPool runs indexed tasks on a bounded number of goroutines.
// Callers keep results in per-index slots so output order never depends
// on scheduling.
type EnrichmentPool struct {
	size int
}

// NewEnrichmentPool creates a pool; sizes below 1 are treated as 1
func NewEnrichmentPool(size int) *EnrichmentPool {
	if size < 1 {
		size = 1
	}
	return &EnrichmentPool{size: size}
}

// Size returns the maximum number of concurrently running tasks
func (p *EnrichmentPool) Size() int {
	return p.size
}

// Run calls task once for every index in [0, n). With a size of 1 the tasks
// run inline in index order. The first error cancels the context handed to
// the remaining tasks and is returned.
func (p *EnrichmentPool) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	if p.size == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := task(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, i)
		})
	}
	return g.Wait()
}
