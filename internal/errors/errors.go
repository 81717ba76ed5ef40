// Package errors provides standardized domain errors with codes for the
// Narrify playback core.
//
// Usage:
//
//	// In services - return typed errors
//	if adapter.Loaded() == nil {
//	    return errors.NotLoaded("nothing loaded")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrAlreadyInProgress) {
//	    // surface "please wait" and move on
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	// Playback codes.
	CodeLoadFailed        Code = "LOAD_FAILED"
	CodeNotLoaded         Code = "NOT_LOADED"
	CodePlayback          Code = "PLAYBACK"
	CodeStaleChapter      Code = "STALE_CHAPTER"
	CodeAlreadyInProgress Code = "ALREADY_IN_PROGRESS"

	// General codes shared with the API surface.
	CodeNotFound   Code = "NOT_FOUND"
	CodeValidation Code = "VALIDATION"
	CodeConflict   Code = "CONFLICT"
	CodeInternal   Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeStaleChapter, CodeNotLoaded:
		return http.StatusBadRequest
	case CodeConflict, CodeAlreadyInProgress:
		return http.StatusConflict
	case CodeLoadFailed, CodePlayback:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrLoadFailed        = &Error{Code: CodeLoadFailed, Message: "load failed"}
	ErrNotLoaded         = &Error{Code: CodeNotLoaded, Message: "nothing loaded"}
	ErrPlayback          = &Error{Code: CodePlayback, Message: "playback failed"}
	ErrStaleChapter      = &Error{Code: CodeStaleChapter, Message: "chapter does not belong to the loaded unit"}
	ErrAlreadyInProgress = &Error{Code: CodeAlreadyInProgress, Message: "already in progress"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict          = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// LoadFailed creates a load failure error.
func LoadFailed(msg string) *Error {
	return &Error{Code: CodeLoadFailed, Message: msg}
}

// LoadFailedf creates a load failure error with formatted message.
func LoadFailedf(format string, args ...any) *Error {
	return &Error{Code: CodeLoadFailed, Message: fmt.Sprintf(format, args...)}
}

// NotLoaded creates a not-loaded error.
func NotLoaded(msg string) *Error {
	return &Error{Code: CodeNotLoaded, Message: msg}
}

// Playback creates a playback error.
func Playback(msg string) *Error {
	return &Error{Code: CodePlayback, Message: msg}
}

// Playbackf creates a playback error with formatted message.
func Playbackf(format string, args ...any) *Error {
	return &Error{Code: CodePlayback, Message: fmt.Sprintf(format, args...)}
}

// StaleChapter creates a stale chapter error.
func StaleChapter(msg string) *Error {
	return &Error{Code: CodeStaleChapter, Message: msg}
}

// AlreadyInProgress creates an already-in-progress error.
func AlreadyInProgress(msg string) *Error {
	return &Error{Code: CodeAlreadyInProgress, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
