package comm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RankFunc is the program every rank executes.
type RankFunc func(ctx context.Context, bc Broadcaster) error

// Run executes fn on n in-process ranks concurrently and waits for all of
// them. The first error cancels the shared context, which unblocks ranks
// waiting in a broadcast, and is returned.
func Run(ctx context.Context, n int, fn RankFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, bc := range NewGroup(n) {
		g.Go(func() error {
			return fn(ctx, bc)
		})
	}
	return g.Wait()
}
