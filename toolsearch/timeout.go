package toolsearch

import (
	"context"
	"time"
)

// runWithTimeout enforces an optional deadline around a single blocking
// call — an LLM turn or a retriever operation — without requiring fn to
// know anything about timeouts itself. A zero timeout means unlimited.
//
// timeoutKind lets the caller pick what a deadline exceeded here means:
// a per-turn timeout against the LLM transport is a BackendUnavailable
// (the transport didn't answer in time, not that the whole loop was
// cancelled), while the outer wall-clock budget wrapping the entire Run
// is a Cancelled. If the parent ctx's own deadline has also passed, the
// deadline is surfaced as Cancelled; any other error, including a
// cancellation of the parent ctx, is returned unchanged.
func runWithTimeout[T any](ctx context.Context, timeout time.Duration, timeoutKind Kind, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := fn(timeoutCtx)
	if err != nil && timeoutCtx.Err() == context.DeadlineExceeded {
		if ctx.Err() == context.DeadlineExceeded {
			return result, newError(KindCancelled, "operation exceeded timeout of "+timeout.String(), timeoutCtx.Err())
		}
		return result, newError(timeoutKind, "operation exceeded timeout of "+timeout.String(), timeoutCtx.Err())
	}
	return result, err
}
