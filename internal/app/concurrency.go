package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// both runs a and b at once. The first failure cancels the other and is
// returned unwrapped so store errors keep their kind.
func both[A, B any](
	ctx context.Context,
	a func(context.Context) (A, error),
	b func(context.Context) (B, error),
) (A, B, error) {
	var (
		ra A
		rb B
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { ra, err = a(gctx); return err })
	g.Go(func() (err error) { rb, err = b(gctx); return err })

	if err := g.Wait(); err != nil {
		var (
			za A
			zb B
		)

		return za, zb, err
	}

	return ra, rb, nil
}

// mapLimit applies fn to every input with at most limit calls in flight.
// out[i] belongs to in[i].
func mapLimit[In, Out any](ctx context.Context, limit int, in []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, v := range in {
		g.Go(func() (err error) {
			out[i], err = fn(gctx, v)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
