package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Both runs a and b concurrently under a shared cancellation. If either
// fails, the other's context is cancelled and both results are discarded.
func Both[A, B any](
	ctx context.Context,
	a func(context.Context) (A, error),
	b func(context.Context) (B, error),
) (A, B, error) {
	var (
		ra A
		rb B
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ra, err = a(gctx)
		return err
	})
	g.Go(func() (err error) {
		rb, err = b(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var (
			za A
			zb B
		)

		return za, zb, err
	}

	return ra, rb, nil
}

// ForEachLimit calls fn for every item with at most limit calls in flight.
// Items not yet started are skipped after the first error.
func ForEachLimit[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			return fn(gctx, item)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%d items: %w", len(items), err)
	}

	return nil
}
