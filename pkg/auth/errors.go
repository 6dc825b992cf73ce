package auth

import (
	"errors"
	"fmt"
)

// Error codes for identity failures.
const (
	CodeConfigInvalid       = "AUTH_CONFIG_INVALID"
	CodeDiscoveryFailed     = "AUTH_DISCOVERY_FAILED"
	CodeCallbackInvalid     = "AUTH_CALLBACK_INVALID"
	CodeStateMismatch       = "AUTH_STATE_MISMATCH"
	CodeLoginRejected       = "AUTH_LOGIN_REJECTED"
	CodeTokenExchangeFailed = "AUTH_TOKEN_EXCHANGE_FAILED"
	CodeIDTokenInvalid      = "AUTH_ID_TOKEN_INVALID"
	CodeStoreFailed         = "AUTH_STORE_FAILED"
	CodeSignOutFailed       = "AUTH_SIGN_OUT_FAILED"
	CodeNavigationFailed    = "AUTH_NAVIGATION_FAILED"
)

// ErrNoSession is returned by Token when there is no valid session.
var ErrNoSession = errors.New("no active session")

// AuthError represents an identity error with a code.
type AuthError struct {
	// Code is the error code (e.g., AUTH_STATE_MISMATCH)
	Code string

	// Message is a human-readable error message
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AuthError.
func NewError(code, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}

// WrapError wraps an existing error with an AuthError.
func WrapError(code, message string, cause error) *AuthError {
	return &AuthError{Code: code, Message: message, Cause: cause}
}

// IsAuthError reports whether err is an AuthError with the given code.
func IsAuthError(err error, code string) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code == code
	}
	return false
}
