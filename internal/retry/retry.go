package retry

import (
	"context"
	"time"
)

// WithRetry runs op up to maxAttempts times, sleeping backoff between attempts.
// isRetryable decides per error whether another attempt is worth making; a
// non-retryable error is returned immediately.
func WithRetry(ctx context.Context, maxAttempts int, backoff time.Duration, isRetryable func(error) bool, op func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if isRetryable == nil || !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}
