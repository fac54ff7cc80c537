package cmn

import (
	"context"
	"time"

	"github.com/mirrorkit/mclone/cmn/nlog"
)

// Retry runs fn up to attempts times, applying the same backoff policy
// sjtug/mirror-clone's retry.rs IoHandler used: a fixed 30s wait on HTTP
// 429, a fixed 60s wait on 5xx, and a short capped backoff (bounded by
// maxBackoff) for any other retryable error. A nil statusOf is treated
// as "no status available" (every error but the last is retried with
// the capped backoff).
func Retry(ctx context.Context, attempts int, name string, statusOf func(error) (int, bool), fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	const maxBackoff = 1000 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := maxBackoff
		if statusOf != nil {
			if code, ok := statusOf(lastErr); ok {
				switch {
				case code == 429:
					wait = 30 * time.Second
				case code >= 500 && code < 600:
					wait = 60 * time.Second
				default:
					// Non-retryable status: stop early.
					nlog.Warningf("[%s] non-retryable status %d: %v", name, code, lastErr)
					return lastErr
				}
			}
		}

		nlog.Warningf("[%s] attempt %d/%d failed: %v, retry in %s", name, attempt, attempts, lastErr, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	nlog.Warningf("[%s] all %d attempts exhausted: %v", name, attempts, lastErr)
	return lastErr
}
