package services

import (
	"errors"

	"easybake/internal/validate"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// ValidationError is a rejected request. Fields holds per-field messages;
// Message alone is used when the problem is not tied to a field.
type ValidationError struct {
	Message string
	Fields  validate.Errors
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "The given data was invalid."
}

func invalid(errs validate.Errors) error {
	if errs.Empty() {
		return nil
	}
	return &ValidationError{Message: "The given data was invalid.", Fields: errs}
}

func fieldError(field, msg string) error {
	return &ValidationError{Message: msg, Fields: validate.Errors{field: {msg}}}
}

func refused(msg string) error { return &ValidationError{Message: msg} }
