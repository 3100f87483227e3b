package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the auth, lookup and storage layers.
// Wrap them with %w and test with errors.Is.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("version conflict")
	ErrAlreadyExists     = errors.New("already exists")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field error collected for one request.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d field error(s)", e.Message, len(e.Fields))
}

// NewValidationError returns nil when fields is empty.
func NewValidationError(message string, fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Message: message, Fields: fields}
}

// PersistenceError wraps a storage-layer failure without interpreting it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for op.
func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
