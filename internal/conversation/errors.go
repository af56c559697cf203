// ABOUTME: Error taxonomy for the conversation service
// ABOUTME: ValidationError carries a field-level message back to the caller

package conversation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports malformed input. It is raised before any
// persistence happens, so the caller can correct and retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// AsValidationError unwraps err to a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// foldValidatorError converts the first validator.v10 field error into our
// caller-facing ValidationError.
func foldValidatorError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required", "min":
		msg = "content must not be empty"
	case "max":
		msg = fmt.Sprintf("content must be at most %s characters", fe.Param())
	default:
		msg = fmt.Sprintf("content failed %s validation", fe.Tag())
	}

	return &ValidationError{Field: "content", Message: msg}
}
