package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidOperation  = errors.New("invalid operation")
)

// Error carries a human readable message and matches its kind with errors.Is.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func InvalidTransition(format string, args ...any) error {
	return newError(ErrInvalidTransition, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

func InvalidOperation(format string, args ...any) error {
	return newError(ErrInvalidOperation, format, args...)
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind, cause error, message string) error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every failed check of a request so the caller sees all
// of them at once. It matches ErrValidation.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, f := range fe {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

// Err returns nil when nothing was collected.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
