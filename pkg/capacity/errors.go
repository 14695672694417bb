package capacity

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks every caller error; the HTTP layer maps it to 400.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidRange is returned when from is after to.
	ErrInvalidRange = errors.New("from must not be after to")
	// ErrInvalidBucket is returned for bucket values other than day, week and month.
	ErrInvalidBucket = errors.New("bucket must be one of day, week, month")
)

// FieldError describes one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field level problems. It matches ErrValidation
// and, when set, the specific cause with errors.Is.
type ValidationError struct {
	Fields []FieldError
	cause  error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.cause}
}

// fieldError wraps a single cause as a ValidationError on field.
func fieldError(field string, cause error) *ValidationError {
	return &ValidationError{
		Fields: []FieldError{{Field: field, Message: cause.Error()}},
		cause:  cause,
	}
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
