package collectors

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/openteams/osshs/internal/errors"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled"`
	// Retryable decides whether an error is worth another attempt.
	Retryable func(error) bool `json:"-"`
}

// DefaultRetryConfig returns sensible defaults for upstream API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
		Retryable:     errors.IsRetryable,
	}
}

// RetryableFunc represents a function that can be retried.
type RetryableFunc func() error

// Retry executes fn with exponential backoff until it succeeds, returns a
// non-retryable error, or the attempts run out.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
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

		if !config.Retryable(err) {
			break
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(calculateDelay(config, attempt)):
		}
	}

	return lastErr
}

// RetryableHTTPFunc represents an HTTP request that can be retried.
type RetryableHTTPFunc func() (*http.Response, error)

// RetryHTTP executes an HTTP request with retry logic. Responses with
// non-retryable status codes are returned to the caller as-is.
func RetryHTTP(ctx context.Context, config RetryConfig, fn RetryableHTTPFunc) (*http.Response, error) {
	var lastResp *http.Response
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
			if !isRetryableHTTPStatus(resp.StatusCode) {
				return resp, nil
			}
			resp.Body.Close()
			lastResp = resp
			lastErr = NewHTTPError(resp.StatusCode, resp.Status)
		} else {
			lastErr = err
			if !config.Retryable(err) {
				return nil, err
			}
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(calculateDelay(config, attempt)):
		}
	}

	return lastResp, lastErr
}

func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// Jitter avoids synchronized retries against a recovering upstream.
	if config.JitterEnabled && delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay/10) + 1))
	}

	return delay
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// HTTPError carries a status code through the retry loop.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return e.Status
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, status string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Status: status}
}
