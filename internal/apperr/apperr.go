// Package apperr carries the service's error taxonomy and its mapping onto
// HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/topcoder-platform/submissions-api-sub000/store"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindBadRequest:
		return "BadRequestError"
	case KindUnauthorized:
		return "UnauthorizedError"
	case KindForbidden:
		return "ForbiddenError"
	case KindNotFound:
		return "NotFoundError"
	case KindConflict:
		return "ConflictError"
	case KindServiceUnavailable:
		return "ServiceUnavailableError"
	default:
		return "InternalError"
	}
}

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is an error with a kind and a caller-facing message.
// The message is part of the API contract.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation and the constructors below format message with args.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, fmt.Sprintf(format, args...))
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(KindServiceUnavailable, fmt.Sprintf(format, args...))
}

// KindOf classifies any error. Store sentinels map to their natural kinds;
// anything unknown is internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrParentNotFound):
		return KindValidation
	case errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, store.ErrDuplicateValue),
		errors.Is(err, store.ErrConcurrentModification),
		errors.Is(err, store.ErrHasChildren):
		return KindConflict
	default:
		return KindInternal
	}
}

// Status maps any error to an HTTP status.
func Status(err error) int {
	return KindOf(err).Status()
}

// Message returns the caller-facing message for err. Internal errors are
// not described to callers.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	var refErr *store.ReferenceError
	if errors.As(err, &refErr) {
		return refErr.Error()
	}
	switch KindOf(err) {
	case KindNotFound:
		return "Resource not found"
	case KindConflict:
		return conflictMessage(err)
	case KindInternal:
		return "Internal server error"
	default:
		return err.Error()
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrDuplicateValue):
		return "A record with the same unique value already exists"
	case errors.Is(err, store.ErrConcurrentModification):
		return "The record was modified by another request, retry with the latest version"
	case errors.Is(err, store.ErrHasChildren):
		return "The record still has dependent records"
	default:
		return "The record already exists"
	}
}
