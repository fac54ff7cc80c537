// Package fanout provides the bounded-concurrency "buffer_unordered"
// combinator several adapters use during Enumerate to resolve
// per-item metadata without unbounded goroutine fan-out, mirroring the
// original_source adapters' futures::stream::buffer_unordered.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map runs fn(items[i]) for every i with at most concurrency in flight
// at once, returning one result slice. A per-item error does not abort
// the whole fan-out: callers pass an fn that already downgrades soft
// failures (e.g. "log the failure, return an empty result"), matching
// the adapters' "failed to fetch index -> warn, empty slice" pattern,
// so Map itself only ever fails on a hard cancellation.
func Map[T, R any](ctx context.Context, items []T, concurrency int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
