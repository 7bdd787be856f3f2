// Package crawl provides the fetch-side plumbing for batch extraction:
// retries with backoff, per-domain pacing and a de-duplicating URL queue.
package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/poesaver"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (string, error)

// DefaultAttempts is the default number of fetch attempts per URL.
const DefaultAttempts = 3

// DefaultRetryBase is the default unit of the linear backoff.
const DefaultRetryBase = 1 * time.Second

// LinearRetryDelays returns the waits between attempts for a linear
// backoff: base, 2×base, ... for attempts-1 retries.
func LinearRetryDelays(attempts int, base time.Duration) []time.Duration {
	if attempts <= 1 {
		return nil
	}
	delays := make([]time.Duration, attempts-1)
	for i := range delays {
		delays[i] = base * time.Duration(i+1)
	}
	return delays
}

// FetchWithRetry fetches url with DefaultAttempts attempts and a linear
// backoff of DefaultRetryBase.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, logger *slog.Logger) (string, error) {
	return FetchWithRetryDelays(ctx, url, fetch, logger, LinearRetryDelays(DefaultAttempts, DefaultRetryBase))
}

// FetchWithRetryDelays is like FetchWithRetry but allows configurable delays.
// Errors with code EINVALID describe the response itself and are returned
// without retrying. The logger, if provided, receives one warning per
// failed attempt that will be retried.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger *slog.Logger, delays []time.Duration) (string, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		html, err := fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if poesaver.ErrorCode(err) == poesaver.EINVALID {
			break
		}

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if logger != nil {
			logger.Warn("fetch failed, retrying",
				"url", url,
				"attempt", attempt+1,
				"of", maxAttempts,
				"wait", delays[attempt],
				"err", err,
			)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return "", lastErr
}
