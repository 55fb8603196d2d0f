package iteria

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrClosed is returned by Dispatch after Close
	ErrClosed = errors.New("controller closed")
	// ErrNoDocument is returned by Format when no document is focused
	ErrNoDocument = errors.New("no active document")
)

// IOFailure reports a failed document write, webview post or journal call
type IOFailure struct {
	Op  string
	Err error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *IOFailure) Unwrap() error { return e.Err }

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiError is a collection of field errors
type MultiError []FieldError

func (m MultiError) Error() string {
	if len(m) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(m))
	for _, err := range m {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validate = validator.New()

// validateMessage checks an inbound webview message envelope
func validateMessage(msg Message) error {
	if err := validate.Struct(msg); err != nil {
		return ValidationToMultiError(err)
	}
	return nil
}

// ValidationToMultiError converts go-playground/validator errors to MultiError
func ValidationToMultiError(err error) MultiError {
	var fieldErrors MultiError

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fieldErrors
	}

	for _, e := range validationErrs {
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", e.Field())
		}

		fieldErrors = append(fieldErrors, FieldError{
			Field:   strings.ToLower(e.Field()),
			Message: message,
		})
	}

	return fieldErrors
}
