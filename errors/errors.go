package errors

import (
	"errors"
	"fmt"
)

// Error is a classified remote-call failure.
type Error struct {
	// ErrKind is the machine-readable classification.
	ErrKind Kind `json:"kind"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.ErrKind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.ErrKind, e.Message)
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.ErrKind }

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the error's kind indicates a transient failure.
func (e *Error) Retryable() bool { return IsRetryableKind(e.ErrKind) }

// WithCause sets the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{ErrKind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{ErrKind: kind, Message: fmt.Sprintf(format, args...)}
}

// --- Common constructors ---

// Timeout classifies a call that exceeded its deadline.
func Timeout(operation string) *Error {
	return Newf(KindTimeout, "%s timed out", operation)
}

// Connection classifies a failure to reach a peer service.
func Connection(service string, cause error) *Error {
	return Newf(KindConnection, "unable to connect to %s", service).WithCause(cause)
}

// Unavailable classifies a peer that reported itself unhealthy.
func Unavailable(service string) *Error {
	return Newf(KindUnavailable, "%s is temporarily unavailable", service)
}

// RateLimited classifies a call throttled by the peer.
func RateLimited(service string) *Error {
	return Newf(KindRateLimited, "%s rejected the call as rate limited", service)
}

// NotFound classifies a missing resource.
func NotFound(resource string) *Error {
	return Newf(KindNotFound, "%s was not found", resource)
}

// Conflict classifies a state conflict.
func Conflict(reason string) *Error {
	return New(KindConflict, reason)
}

// Validation classifies a malformed request.
func Validation(reason string) *Error {
	return New(KindValidation, reason)
}

// Internal classifies an unexpected failure.
func Internal(cause error) *Error {
	return New(KindInternal, "unexpected error").WithCause(cause)
}

// KindOf extracts the Kind from an error chain. The second return is
// false when no classified error is present.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrKind, true
	}
	return "", false
}

// IsRetryable reports whether the error chain carries a transient kind.
// Unclassified errors are not considered retryable.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && IsRetryableKind(kind)
}
