// Package apperr defines the user-facing error taxonomy. Every error
// carries a stable message and HTTP status; handlers map anything else to a
// generic 500 so internal detail never leaks.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a user-facing failure with a stable status code and message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// BadRequest covers malformed input, expired/invalid OTPs and duplicates.
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Unauthorized covers bad credentials and invalid or expired tokens.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Forbidden covers role mismatches.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotFound covers missing entities.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// TooManyRequests covers rate-limited operations.
func TooManyRequests(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: message}
}

// From unwraps err to an *Error if one is in the chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
