// Package apperrors defines the error taxonomy shared by the orchestration
// core: validation failures abort before any state is mutated, not-found
// errors never leave partial side effects, and processing errors are raised
// only after the failure has been persisted on the affected entity.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel for absent resources. NotFoundError unwraps
// to it, so callers may match either form with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError indicates malformed or missing required input.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError indicates a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a not-found error for a resource.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ProcessingError indicates a failure partway through a multi-step write.
// By the time a ProcessingError reaches a caller the affected entity has
// already been flipped to failed, so the thrown error and the durable
// record agree on the outcome.
type ProcessingError struct {
	Stage string
	Err   error
}

// NewProcessingError wraps an error that occurred at a named stage.
func NewProcessingError(stage string, err error) *ProcessingError {
	return &ProcessingError{Stage: stage, Err: err}
}

func (e *ProcessingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("processing failed at %s", e.Stage)
	}
	return fmt.Sprintf("processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// IsProcessing reports whether err is a ProcessingError.
func IsProcessing(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe)
}
