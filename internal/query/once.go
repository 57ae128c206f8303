package query

import (
	"context"

	"github.com/uchsash/medistore/internal/location"
)

// FetchOnce binds a short-lived controller to loc, waits for its initial fetch
// to settle and returns the resulting snapshot. Request handlers use it to
// serve one list page with the same normalization a long-lived view gets.
func FetchOnce[T any](ctx context.Context, schema Schema, loc location.Location, fetch Fetcher[T], opts ...Option) Snapshot[T] {
	return FetchAfter(ctx, schema, loc, fetch, nil, opts...)
}

// FetchAfter is FetchOnce with a hook that may adjust the controller before
// its first fetch. Location changes made by prepare are picked up by that
// fetch; fetch triggers such as Refresh are no-ops until the controller starts.
func FetchAfter[T any](ctx context.Context, schema Schema, loc location.Location, fetch Fetcher[T], prepare func(*Controller[T]), opts ...Option) Snapshot[T] {
	c := NewController(schema, loc, fetch, opts...)
	if prepare != nil {
		prepare(c)
	}

	settled := make(chan Snapshot[T], 1)
	c.Subscribe(func(s Snapshot[T]) {
		if s.Loading {
			return
		}
		select {
		case settled <- s:
		default:
		}
	})

	c.Start(ctx)
	defer c.Stop()

	select {
	case snap := <-settled:
		return snap
	case <-ctx.Done():
		snap := c.Snapshot()
		snap.Loading = false
		snap.Err = ctx.Err()
		return snap
	}
}
