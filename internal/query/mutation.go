package query

import (
	"context"
	"errors"

	"github.com/dezobq/snapgram/internal/errs"
)

// Mutate runs a write and then invalidates the given key prefixes. A failed
// write invalidates nothing, except when it reports a consistency warning:
// the platform state changed anyway.
func Mutate[T any](ctx context.Context, c *Client, fn func(ctx context.Context) (T, error), invalidates ...Key) (T, error) {
	v, err := fn(ctx)
	if err == nil || errors.Is(err, errs.ErrConsistency) {
		c.Invalidate(invalidates...)
	}
	return v, err
}
