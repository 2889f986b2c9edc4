// Package apperr defines the error kinds surfaced by services and their
// HTTP status mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidState
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

// Error carries a machine code for clients alongside a readable message
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInvalidState:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newf(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, "INVALID_REQUEST", format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newf(KindInvalidState, "INVALID_STATE", format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return newf(KindAuthentication, "UNAUTHORIZED", format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindAuthorization, "FORBIDDEN", format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, "NOT_FOUND", format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, "CONFLICT", format, args...)
}

// Internal wraps an unexpected failure; the message shown to clients stays generic
func Internal(err error, format string, args ...interface{}) *Error {
	e := newf(KindInternal, "INTERNAL_ERROR", format, args...)
	e.Err = err
	return e
}

// WithCode overrides the machine code
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// As extracts an *Error from the chain
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}
