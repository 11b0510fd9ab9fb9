// Package apperr defines the typed failures returned by workflow operations.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can map it deterministically
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindAccessDenied      Kind = "ACCESS_DENIED"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindValidationFailed  Kind = "VALIDATION_FAILED"
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
)

// Sentinels for errors.Is checks against any *Error of the same kind
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied, Message: "access denied"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrValidationFailed  = &Error{Kind: KindValidationFailed, Message: "validation failed"}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
)

// Error is a classified failure with a caller-facing message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func AccessDenied(format string, args ...interface{}) *Error {
	return New(KindAccessDenied, format, args...)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return New(KindInvalidTransition, format, args...)
}

func ValidationFailed(format string, args ...interface{}) *Error {
	return New(KindValidationFailed, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return New(KindUnauthenticated, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or "" for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
