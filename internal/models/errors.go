package models

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the job subsystem. Callers match these with
// errors.Is to map failures onto transport responses.
var (
	ErrCapacityExceeded = errors.New("print queue at capacity")
	ErrJobNotFound      = errors.New("print job not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrLayoutNotFound   = errors.New("layout not found")
)

// ValidationKind identifies which rule a print spec violated.
type ValidationKind string

const (
	ValidationMissingConfig     ValidationKind = "missing_config"
	ValidationParameterMismatch ValidationKind = "parameter_mismatch"
	ValidationInvalidURI        ValidationKind = "invalid_uri"
	ValidationUnknownEnumValue  ValidationKind = "unknown_enum_value"
)

// ValidationError reports a rejected print spec. It is always returned
// synchronously from submission, never recorded on a job.
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	Field   string         `json:"field"`
	Message string         `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid print spec (%s): %s: %s", e.Kind, e.Field, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(kind ValidationKind, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotReadyError is returned when a result is requested for a job that has
// not reached DONE. Status carries the job's state at the time of the call.
type NotReadyError struct {
	Status JobStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("job result not ready: status is %s", e.Status)
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsNotReady reports whether err is a NotReadyError and returns it.
func IsNotReady(err error) (*NotReadyError, bool) {
	var nr *NotReadyError
	if errors.As(err, &nr) {
		return nr, true
	}
	return nil, false
}
