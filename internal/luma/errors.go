package luma

import (
	"errors"
	"fmt"
)

// ErrInvalidLimit is returned when a non-positive result limit is requested.
var ErrInvalidLimit = errors.New("luma: limit must be positive")

// ConfigurationError means the call was never attempted because a required
// setting (API key, calendar ID, base URL) is missing or unusable.
type ConfigurationError struct {
	Field  string
	Reason string

	// Err is an optional sentinel such as ErrInvalidLimit.
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("luma: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// RemoteServiceError means the provider answered with a non-2xx status.
// Body holds (a prefix of) the response body for diagnostics only.
type RemoteServiceError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("Luma API request failed: %s", e.Status)
}

// NetworkError wraps transport-level failures (DNS, timeouts, resets,
// context cancellation).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("luma: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError means a provider payload could not be decoded.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("luma: malformed %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err (or anything it wraps) is a
// *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
