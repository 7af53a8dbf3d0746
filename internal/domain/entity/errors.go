package entity

import (
	"errors"
	"fmt"
)

// Error kinds of the refresh pipeline.
var (
	// ErrGatingSkipped marks a refresh that was not run because the section
	// requires premium or a module that is not active. It is not a failure.
	ErrGatingSkipped = errors.New("refresh skipped: section is gated")

	// ErrTransport is matched by every failure of the remote query.
	ErrTransport = errors.New("transport error")

	// ErrSchemaValidation is matched by every response shape mismatch.
	ErrSchemaValidation = errors.New("schema validation error")

	// ErrSecondaryRefresh wraps failures of the asset metadata refresh.
	ErrSecondaryRefresh = errors.New("secondary refresh error")
)

// TransportError is returned when the portfolio API could not be queried.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport as a match so callers can test the kind.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// SchemaValidationError is returned when a payload does not have the expected structure.
type SchemaValidationError struct {
	Shape string
	Err   error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("invalid %s payload: %v", e.Shape, e.Err)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// Is reports ErrSchemaValidation as a match so callers can test the kind.
func (e *SchemaValidationError) Is(target error) bool { return target == ErrSchemaValidation }
