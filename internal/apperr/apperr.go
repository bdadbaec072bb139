// Package apperr defines the error kinds shared by the form service and its
// HTTP handlers. Every error carries one kind; handlers map the kind to a
// status code with Status.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Use errors.Is(err, apperr.ErrNotFound) to test a kind.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Error is a kinded error with a caller-facing message.
type Error struct {
	kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Unwrap returns the kind sentinel.
func (e *Error) Unwrap() error {
	return e.kind
}

func Validation(msg string) error       { return &Error{kind: ErrValidation, Msg: msg} }
func NotFound(msg string) error         { return &Error{kind: ErrNotFound, Msg: msg} }
func Conflict(msg string) error         { return &Error{kind: ErrConflict, Msg: msg} }
func Forbidden(msg string) error        { return &Error{kind: ErrForbidden, Msg: msg} }
func Unauthorized(msg string) error     { return &Error{kind: ErrUnauthorized, Msg: msg} }
func MethodNotAllowed(msg string) error { return &Error{kind: ErrMethodNotAllowed, Msg: msg} }

var statusByKind = []struct {
	kind   error
	status int
	code   string
}{
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrMethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	{ErrConflict, http.StatusConflict, "CONFLICT"},
}

// Status returns the HTTP status code and machine-readable code for err.
// Errors without a kind are internal errors.
func Status(err error) (int, string) {
	for _, s := range statusByKind {
		if errors.Is(err, s.kind) {
			return s.status, s.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// Message returns the caller-facing message of err. Internal errors are not
// exposed verbatim.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}
