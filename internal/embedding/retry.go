package embedding

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// retryConfig mirrors the teacher's remote-embedder retry shape
// (core/vectorgraphdb/vamana/embedder/voyage.go): a bounded number of
// attempts with exponential backoff, short-circuited for errors judged
// non-retryable.
type retryConfig struct {
	maxAttempts int
	baseBackoff time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{maxAttempts: 3, baseBackoff: 500 * time.Millisecond}
}

// withRetry runs fn up to cfg.maxAttempts times, doubling the backoff
// between attempts, and gives up immediately on a non-retryable error.
func withRetry(ctx context.Context, cfg retryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}

		backoff := cfg.baseBackoff * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}

// retryableStatus is satisfied by SDK errors that expose an HTTP status
// code, so transient server-side failures (429, 5xx) retry while client
// errors (400, 401) do not.
type retryableStatus interface {
	StatusCode() int
}

func isRetryable(err error) bool {
	var withStatus retryableStatus
	if errors.As(err, &withStatus) {
		code := withStatus.StatusCode()
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	// No status information: treat network-level errors (timeouts,
	// connection resets) as retryable by default.
	return true
}
