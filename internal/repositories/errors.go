package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransport         = errors.New("transport failure")
	ErrCircuitOpen       = errors.New("circuit breaker open")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEmptyAPIKey       = errors.New("API key cannot be empty")
	ErrEmptyLocation     = errors.New("location cannot be empty")
)

// APIError is a non-2xx answer from the weather API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether repeating the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable reports whether err is a transport-level failure worth retrying.
// Cancellation, an open circuit, validation and 4xx answers are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, ErrTransport) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return false
}
