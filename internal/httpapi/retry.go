package httpapi

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig defines retry behavior for requests that might fail transiently
type RetryConfig struct {
	// MaxRetries is the maximum number of retries before giving up
	MaxRetries int

	// InitialBackoff is the duration to wait before the first retry
	InitialBackoff time.Duration

	// MaxBackoff is the maximum duration to wait between retries
	MaxBackoff time.Duration

	// BackoffFactor is the factor by which to increase backoff after each retry
	BackoffFactor float64
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     4,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     1 * time.Minute,
		BackoffFactor:  2.0,
	}
}

// NoRetry disables retries.
func NoRetry() RetryConfig {
	return RetryConfig{}
}

// RetryUpTo returns the default policy limited to n retries.
func RetryUpTo(n int) RetryConfig {
	if n <= 0 {
		return NoRetry()
	}
	rc := DefaultRetryConfig()
	rc.MaxRetries = n
	return rc
}

// isRetryableStatus reports whether a response status is worth another try.
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isIdempotent reports whether a request may be resent after a failure
// whose outcome on the server is unknown.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// isRetryableError reports whether a transport error is worth another try.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !IsAuthError(err)
}

// backoff calculates the wait before retry number attempt (0-based),
// with ±20% jitter, capped at MaxBackoff.
func (rc RetryConfig) backoff(attempt int) time.Duration {
	d := float64(rc.InitialBackoff) * math.Pow(rc.BackoffFactor, float64(attempt))

	jitter := (rand.Float64() * 0.4) - 0.2 //nolint:gosec // jitter does not need crypto rand
	d = d * (1 + jitter)

	if d > float64(rc.MaxBackoff) {
		d = float64(rc.MaxBackoff)
	}
	return time.Duration(d)
}

// retryAfter honors a Retry-After header given in seconds.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(ra)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
