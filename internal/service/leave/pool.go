package leave

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultWorkerPoolSize = 4

// forEach runs fn for every index in [0, n) on at most limit goroutines and
// returns the per-index errors. Units that have not started when ctx is done
// record ctx.Err() and are skipped.
func forEach(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}
