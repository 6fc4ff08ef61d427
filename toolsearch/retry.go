package toolsearch

import (
	"math/rand"
	"time"
)

// RetryPolicy configures exponential-backoff-with-jitter retry for
// BackendUnavailable failures during indexTool.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	// Defaults to a single retry, i.e. MaxAttempts=2.
	MaxAttempts int

	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy retries once with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// computeBackoff returns base * 2^attempt (capped at maxDelay) plus jitter
// in [0, base), to avoid synchronized retries across sessions hitting the
// same unavailable back-end.
func computeBackoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base * time.Duration(1<<attempt)
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- retry timing, not security
	return delay + jitter
}
