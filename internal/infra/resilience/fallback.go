package resilience

import (
	"context"
	"fmt"
)

// Op is one side of a dual-backend operation.
type Op[T any] func(ctx context.Context) (T, error)

// Fallback runs primary; on error it runs secondary exactly once and the
// secondary's result, success or failure, is what the caller observes.
// The primary's error is never surfaced when the secondary succeeds; when
// both fail, the secondary's error wraps the primary's for diagnostics.
//
// The same combinator serves every screen needing dual-backend resilience,
// so the REST-then-store policy cannot drift between call sites.
func Fallback[T any](ctx context.Context, primary, secondary Op[T]) (T, bool, error) {
	result, primaryErr := primary(ctx)
	if primaryErr == nil {
		return result, false, nil
	}

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}

	result, secondaryErr := secondary(ctx)
	if secondaryErr != nil {
		var zero T
		return zero, true, fmt.Errorf("fallback failed: %w (primary: %v)", secondaryErr, primaryErr)
	}
	return result, true, nil
}
