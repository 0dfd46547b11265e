package store

import (
	"errors"
	"fmt"
)

// Common store errors.
var (
	// ErrNotFound is returned when a requested row or table does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrSetupFailed marks failures while provisioning the schema or seed data.
	// Setup failures are fatal: the reproduction cannot run on a partial fixture.
	ErrSetupFailed = errors.New("setup failed")

	// ErrQueryFailed is returned when a read against a table fails.
	ErrQueryFailed = errors.New("query failed")
)

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Table     string // The table involved (e.g., "some_other_table")
	Operation string // The operation that failed (e.g., "insert", "select")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s on %s failed: %s: %v",
			e.Operation,
			e.Table,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s on %s failed: %s", e.Operation, e.Table, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given table, operation, message, and wrapped error.
func NewStoreError(table, operation, message string, err error) *StoreError {
	return &StoreError{
		Table:     table,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
