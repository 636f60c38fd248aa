package resilience

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/onca-labs/fiscaliza/internal/errors"
)

// RetryConfig tunes retry behavior for upstream calls.
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	JitterEnabled bool          `json:"jitter_enabled"`
}

// DefaultRetryConfig returns the retry settings used for both government
// upstreams. Attempts stay low because every profile view fans out into many
// calls and a slow retry storm is worse than a missing section.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		JitterEnabled: true,
	}
}

// Retry runs fn until it succeeds, the error is non-retryable, or attempts
// are exhausted. Context cancellation stops the loop immediately.
func Retry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.IsRetryableError(err) {
			break
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay(config, lastErr, attempt)):
		}
	}

	return lastErr
}

// RetryHTTP runs an HTTP request with retry on transport errors and
// retryable status codes (408, 429, 5xx).
func RetryHTTP(ctx context.Context, config RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := fn()
		if err == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}
			if !retryableStatus(resp.StatusCode) {
				return resp, nil
			}
			// The body is never handed to the caller on the error path,
			// so it must be drained here to release the connection.
			resp.Body.Close()
			lastErr = &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		} else {
			lastErr = err
			if !errors.IsRetryableError(err) {
				return nil, err
			}
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay(config, lastErr, attempt)):
		}
	}

	return nil, lastErr
}

// retryDelay asks the error layer for a category-appropriate backoff and
// clamps it into the configured window. Rate-limited upstreams back off much
// harder than plain 5xx responses.
func retryDelay(config RetryConfig, err error, attempt int) time.Duration {
	delay := errors.GetRetryDelay(err, attempt+1)
	if delay < config.InitialDelay {
		delay = config.InitialDelay
	}
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.JitterEnabled {
		if jitter := int64(delay / 10); jitter > 0 {
			delay += time.Duration(rand.Int63n(jitter))
		}
	}
	return delay
}

func retryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return statusCode >= 500
}

// HTTPStatusError carries a non-2xx upstream status through the retry loop.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return e.Status
}
