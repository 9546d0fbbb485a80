package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every domain failure wraps exactly one of these.
var (
	ErrGeneric      = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("resource not found")
	ErrDatabase     = errors.New("database error")
)

// AppError carries the human-readable message shown to clients next to the kind
// used for status mapping. Err keeps the underlying cause for logs.
type AppError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is lets errors.Is match against the kind as well as the wrapped cause.
func (e *AppError) Is(target error) bool {
	return target == e.Kind
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(kind error, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func Generic(message string) error {
	return New(ErrGeneric, message, nil)
}

func Unauthorized(message string) error {
	return New(ErrUnauthorized, message, nil)
}

func NotFound(message string) error {
	return New(ErrNotFound, message, nil)
}

// Database wraps a persistence failure. The cause is kept out of the client message.
func Database(message string, err error) error {
	return New(ErrDatabase, message, err)
}

// Message returns the text safe to show to a client.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// MapErrorToStatus maps the taxonomy to HTTP status codes. Unclassified errors are 500.
func MapErrorToStatus(err error) int {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrGeneric) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDatabase) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
