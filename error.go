package librarian

import (
	"context"
	"errors"
	"fmt"
)

// Application error codes.
//
// These codes classify errors for programmatic handling: the fetch retry
// policy retries EUNAVAILABLE, the crawler records ECANCELED for pages it
// never got to fetch, and the CLI maps codes to exit status.
const (
	ECANCELED       = "canceled"        // operation stopped by caller
	ECONFLICT       = "conflict"        // conflicting state
	EINTERNAL       = "internal"        // unexpected internal error
	EINVALID        = "invalid"         // validation failed; not retryable
	ENOTFOUND       = "not_found"       // entity does not exist
	ENOTIMPLEMENTED = "not_implemented" // feature not implemented
	EUNAVAILABLE    = "unavailable"     // transient failure; retryable
)

// Error represents an application-specific error. Errors carry a machine
// readable code and a human readable message.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message.
	Message string

	// Wrapped error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("librarian error: code=%s message=%s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("librarian error: code=%s message=%s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode unwraps an application error and returns its code. Non-application
// errors return EINTERNAL, except context cancellation and deadline errors
// which return ECANCELED.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ECANCELED
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError returns an Error wrapping err with the given code and formatted
// message. The wrapped error remains reachable through errors.Is/As.
func WrapError(err error, code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Retryable reports whether an error is worth retrying. Only transient
// failures (EUNAVAILABLE) qualify.
func Retryable(err error) bool {
	return ErrorCode(err) == EUNAVAILABLE
}
