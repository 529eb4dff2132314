// Package apperr defines the uniform fault shape shared by every response
// path. An Error carries the HTTP status, a user-facing message, and an
// operational flag separating expected conditions (validation, not-found,
// unauthorized) from programming faults whose detail must stay hidden in
// production.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the classified form of any fault surfaced during request
// processing. Operational errors are safe to show verbatim; everything else
// is a defect and gets a generic message outside development.
type Error struct {
	Status      int    // HTTP status code
	Message     string // human-readable, user-safe when Operational
	Operational bool
	Err         error // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// StatusLabel returns the response "status" field for this error: "fail" for
// client faults (4xx) and "error" for server faults (5xx).
func (e *Error) StatusLabel() string {
	if e.Status >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}

// New creates an operational error with the given status and message.
func New(status int, msg string) *Error {
	return &Error{Status: status, Message: msg, Operational: true}
}

// Newf creates an operational error with a formatted message.
func Newf(status int, format string, args ...any) *Error {
	return New(status, fmt.Sprintf(format, args...))
}

// Wrap attaches a cause to an operational error.
func Wrap(status int, msg string, err error) *Error {
	return &Error{Status: status, Message: msg, Operational: true, Err: err}
}

// Internal creates a non-operational (programming) fault. The message is
// replaced with a generic one before it reaches clients in production.
func Internal(err error) *Error {
	return &Error{
		Status:      http.StatusInternalServerError,
		Message:     "Something went very wrong!",
		Operational: false,
		Err:         err,
	}
}

// Convenience constructors for the common operational statuses.

func BadRequest(msg string) *Error   { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *Error     { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *Error     { return New(http.StatusConflict, msg) }

// From classifies an arbitrary error into *Error. Already-classified errors
// pass through; unknown errors become programming faults.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return New(http.StatusRequestEntityTooLarge, "Request body too large")
	}
	return Internal(err)
}
