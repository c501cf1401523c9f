package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token rejected")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDecodeResponse     = fmt.Errorf("failed to decode response")

	// Job polling errors
	ErrAlreadyPolling = fmt.Errorf("a job is already being polled")
	ErrPollLimit      = fmt.Errorf("polling limit reached")
	ErrPollStopped    = fmt.Errorf("polling stopped")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ServerError is a failure the server reported itself, carrying its message verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Unwrap lets callers match any server-reported failure with [ErrAPIRequest].
func (e *ServerError) Unwrap() error {
	return ErrAPIRequest
}

// IsServerError reports whether err carries a server-supplied message.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
