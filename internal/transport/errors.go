package transport

import (
	"errors"
	"fmt"
	"time"
)

// ErrResponseTooLarge means a successful response body exceeded the client's
// size limit. It is never retried.
var ErrResponseTooLarge = errors.New("response body too large")

// errorResponse is the body the service sends with non-2xx statuses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("pdfdancer: status %d: %s: %s", e.StatusCode, e.Code, truncate(e.Message, 200))
	}
	return fmt.Sprintf("pdfdancer: status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

// FontNotFoundError is returned when the service cannot resolve a font.
type FontNotFoundError struct {
	Message string
}

func (e *FontNotFoundError) Error() string {
	return "font not found: " + e.Message
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
	// RetryAfter is the server's requested wait, zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func (e *RetryableError) Unwrap() error { return e.Err }

// NetworkError wraps a failure to reach the service at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var retryErr *RetryableError
	if errors.As(err, &retryErr) {
		return retryErr.StatusCode
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
