package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindConflict          Kind = "CONFLICT"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Error is a domain error tagged with a Kind.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field validation messages.
	Fields map[string]string
	Err    error
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

// Is matches on Kind so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }

// Validation creates a validation error with optional per-field messages.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// InsufficientFunds creates the ledger guard error.
func InsufficientFunds(message string) *Error {
	return New(KindInsufficientFunds, message)
}

// Internal wraps an unexpected failure. The message is never shown to clients.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

var (
	// ErrUnauthorized matches any Unauthorized error.
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	// ErrForbidden matches any Forbidden error.
	ErrForbidden = &Error{Kind: KindForbidden}
	// ErrNotFound matches any NotFound error.
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrValidation matches any validation error.
	ErrValidation = &Error{Kind: KindValidation}
	// ErrConflict matches any Conflict error.
	ErrConflict = &Error{Kind: KindConflict}
	// ErrInsufficientFunds matches any InsufficientFunds error.
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
)

// KindOf returns the Kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", string(KindInternal))
	}

	var status int
	switch e.Kind {
	case KindUnauthorized:
		status = http.StatusUnauthorized
	case KindForbidden:
		status = http.StatusForbidden
	case KindNotFound:
		status = http.StatusNotFound
	case KindValidation, KindInsufficientFunds:
		status = http.StatusBadRequest
	case KindConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	httpErr := NewHTTPError(status, e.Message, string(e.Kind))
	httpErr.Fields = e.Fields
	return httpErr
}
