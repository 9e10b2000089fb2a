// Package apperror is the error taxonomy shared by the store, the services
// and the stream relay. Every error carries one of the sentinel kinds below so
// callers can branch with errors.Is and the HTTP layer can pick a status.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrValidationFailed     = errors.New("validation failed")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrCancelled            = errors.New("cancelled")
	ErrRateLimited          = errors.New("rate limited")
	ErrInternal             = errors.New("internal error")
)

// StatusClientClosedRequest is the non-standard status used for requests the
// client abandoned. It never reaches the client.
const StatusClientClosedRequest = 499

type Error struct {
	Kind    error
	Message string
	// Fields holds per-field messages for ErrValidationFailed.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, nil, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(ErrConflict, nil, format, args...)
}

func Validation(message string, fields map[string][]string) *Error {
	return &Error{Kind: ErrValidationFailed, Message: message, Fields: fields}
}

// ValidationField is shorthand for a single failing field.
func ValidationField(field, message string) *Error {
	return Validation(message, map[string][]string{field: {message}})
}

func UpstreamUnavailable(err error, format string, args ...interface{}) *Error {
	return newError(ErrUpstreamUnavailable, err, format, args...)
}

func ConfigurationMissing(format string, args ...interface{}) *Error {
	return newError(ErrConfigurationMissing, nil, format, args...)
}

func Cancelled(err error) *Error {
	return newError(ErrCancelled, err, "request cancelled")
}

func RateLimited(format string, args ...interface{}) *Error {
	return newError(ErrRateLimited, nil, format, args...)
}

func Internal(err error, format string, args ...interface{}) *Error {
	return newError(ErrInternal, err, format, args...)
}

// KindOf reports the sentinel kind of err. Context cancellation counts as
// ErrCancelled; anything unclassified is ErrInternal.
func KindOf(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return ErrInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrUpstreamUnavailable:
		return http.StatusBadGateway
	case ErrCancelled:
		return StatusClientClosedRequest
	case ErrRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
