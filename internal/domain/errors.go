// Package domain defines core types, interfaces, and errors for the catalog engine.
package domain

import "fmt"

// NotFoundError indicates a metadata object was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., tracking an already-tracked table).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// StoreError wraps a failure surfaced by the backing store during a scoped
// transaction. Phase records which part of the operation failed (schema
// creation, extension install, seed load, registration, version stamp).
type StoreError struct {
	Phase string
	Err   error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Phase, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// CatalogUninitializedError indicates the version table is absent or empty.
// Surfaced to the caller, never silently bootstrapped over.
type CatalogUninitializedError struct {
	Message string
}

func (e *CatalogUninitializedError) Error() string { return e.Message }

// UnsupportedVersionError indicates the recorded catalog version matches none
// of the known migration paths. Non-retriable without manual intervention.
type UnsupportedVersionError struct {
	Version Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported catalog version %q: cannot migrate", string(e.Version))
}

// InconsistentStateError indicates a catalog state that should be structurally
// impossible (e.g., multiple version rows). Signals a bug or manual tampering.
type InconsistentStateError struct {
	Message string
}

func (e *InconsistentStateError) Error() string { return e.Message }

// InvalidJSONError indicates a payload that is not well-formed JSON.
type InvalidJSONError struct {
	Err error
}

func (e *InvalidJSONError) Error() string { return fmt.Sprintf("invalid JSON payload: %v", e.Err) }
func (e *InvalidJSONError) Unwrap() error { return e.Err }

// DecodeError indicates well-formed JSON that does not match any known
// admin query shape.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrStore wraps a store-level error with the phase it occurred in.
func ErrStore(phase string, err error) *StoreError {
	return &StoreError{Phase: phase, Err: err}
}

// ErrUninitialized creates a CatalogUninitializedError with a formatted message.
func ErrUninitialized(format string, args ...interface{}) *CatalogUninitializedError {
	return &CatalogUninitializedError{Message: fmt.Sprintf(format, args...)}
}

// ErrInconsistent creates an InconsistentStateError with a formatted message.
func ErrInconsistent(format string, args ...interface{}) *InconsistentStateError {
	return &InconsistentStateError{Message: fmt.Sprintf(format, args...)}
}

// ErrDecode creates a DecodeError with a formatted message.
func ErrDecode(format string, args ...interface{}) *DecodeError {
	return &DecodeError{Message: fmt.Sprintf(format, args...)}
}
