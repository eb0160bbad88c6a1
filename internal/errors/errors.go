// Package errors defines the closed error taxonomy shared by the recruiting
// layer services. Every failure crossing a service boundary is a
// *ServiceError carrying a stable kind, a human-readable message and, where
// useful for clients, structured detail.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a category of service failure.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindForbidden         Kind = "forbidden"
	KindStorageFailure    Kind = "storage_failure"
	KindStaleWrite        Kind = "stale_write"
	KindRateLimited       Kind = "rate_limited"
	KindInternal          Kind = "internal"
)

// ServiceError is the single error type exposed by the service layer.
type ServiceError struct {
	Kind       Kind                   `json:"kind"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.cause }

// Is matches two service errors by kind, so sentinel-style comparisons like
// errors.Is(err, errors.NotFound("")) work.
func (e *ServiceError) Is(target error) bool {
	var t *ServiceError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause attaches an underlying error without changing the kind.
func (e *ServiceError) WithCause(cause error) *ServiceError {
	e.cause = cause
	return e
}

// WithDetail attaches one structured detail entry.
func (e *ServiceError) WithDetail(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Validation reports malformed or disallowed input. Safe to show to clients.
func Validation(message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...interface{}) *ServiceError {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound reports an absent referenced entity.
func NotFound(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// NotFoundf is NotFound with formatting.
func NotFoundf(format string, args ...interface{}) *ServiceError {
	return NotFound(fmt.Sprintf(format, args...))
}

// Conflict reports a uniqueness or concurrent-write collision. The duplicate
// key, when known, rides in Details so clients can decide whether to retry.
func Conflict(message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// InvalidTransition reports a status-machine violation, naming both states.
func InvalidTransition(from, to string) *ServiceError {
	e := &ServiceError{
		Kind:       KindInvalidTransition,
		Message:    fmt.Sprintf("invalid status transition: %s -> %s", from, to),
		HTTPStatus: http.StatusBadRequest,
	}
	return e.WithDetail("from", from).WithDetail("to", to)
}

// Forbidden reports an authorization denial.
func Forbidden(message string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// StorageFailure reports an attachment-storage I/O error. "Object already
// absent" is not a storage failure; deletion of a missing object is success.
func StorageFailure(message string, cause error) *ServiceError {
	e := &ServiceError{Kind: KindStorageFailure, Message: message, HTTPStatus: http.StatusBadGateway}
	return e.WithCause(cause)
}

// StaleWrite reports a lost optimistic-concurrency race on an aggregate.
func StaleWrite(message string) *ServiceError {
	return &ServiceError{Kind: KindStaleWrite, Message: message, HTTPStatus: http.StatusConflict}
}

// RateLimitExceeded reports request throttling.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := &ServiceError{
		Kind:       KindRateLimited,
		Message:    "rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}
	return e.WithDetail("limit", limit).WithDetail("window", window)
}

// Internal reports an unexpected failure. The cause is kept for logs, never
// serialized to clients.
func Internal(message string, cause error) *ServiceError {
	e := &ServiceError{Kind: KindInternal, Message: message, HTTPStatus: http.StatusInternalServerError}
	return e.WithCause(cause)
}

// KindOf extracts the kind from any error, defaulting to KindInternal.
func KindOf(err error) Kind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == kind
}

// StatusOf maps any error to an HTTP status code.
func StatusOf(err error) int {
	var se *ServiceError
	if errors.As(err, &se) && se.HTTPStatus != 0 {
		return se.HTTPStatus
	}
	return http.StatusInternalServerError
}
