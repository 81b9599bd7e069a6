package gateway

import (
	"errors"
	"fmt"
)

// Configuration errors fail fast; transport and status errors are wrapped with
// the underlying cause so callers can still errors.Is on net and context errors.
var (
	ErrInvalidURL        = errors.New("invalid gateway URL")
	ErrMissingToken      = errors.New("missing auth token")
	ErrRequestFailed     = errors.New("gateway request failed")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed gateway response")
	ErrCircuitOpen       = errors.New("gateway circuit breaker is open")
	ErrEmptyID           = errors.New("notification id is required")
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrUnexpectedStatus }

// Temporary reports whether retrying the request later may succeed.
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case 408, 425, 429:
		return true
	}
	return e.StatusCode >= 500
}

// IsCircuitOpen checks if an error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
