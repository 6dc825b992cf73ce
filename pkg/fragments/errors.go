package fragments

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken means no usable identity token was available, so the
	// request was never sent.
	ErrNoToken = errors.New("no identity token available")

	// ErrSessionInvalid means the service rejected the token (HTTP 401).
	ErrSessionInvalid = errors.New("session is no longer valid")
)

// AuthenticationError is returned when a call cannot be authenticated. The
// caller should sign in again.
type AuthenticationError struct {
	Op      string // Operation that failed (e.g., "GetFragments")
	Status  int    // HTTP status, 0 when the request was never sent
	Message string
	RawBody any // Parsed JSON or raw text of the response, if any
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// NetworkError is returned when a request could not be sent or its response
// could not be read. Retrying may help.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is returned when the service responded with a non-2xx status.
type APIError struct {
	Op      string
	Status  int
	Message string
	RawBody any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.Op, e.Status, e.Message)
}

// ValidationError is returned for malformed caller input, before any request
// is made.
type ValidationError struct {
	Op      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Message)
}

// IsAuthentication reports whether err is an *AuthenticationError.
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is a *NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	return 0
}
