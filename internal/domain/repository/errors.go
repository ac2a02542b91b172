// Package repository contains the repository interfaces and related errors.
package repository

import "errors"

// Repository errors define common error conditions across all repositories.
// These errors are used to communicate specific failure conditions
// from the data access layer to the application layer.
var (
	// ErrLayoutNotFound is returned when a layout cannot be found by ID.
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrDuplicateLayout is returned when trying to create a layout
	// whose ID already exists.
	ErrDuplicateLayout = errors.New("layout already exists")

	// ErrOptimisticLock is returned when an update fails due to
	// a version mismatch (concurrent modification).
	ErrOptimisticLock = errors.New("optimistic lock conflict: record was modified by another transaction")

	// ErrConnectionFailed is returned when the store connection fails.
	ErrConnectionFailed = errors.New("store connection failed")

	// ErrInvalidInput is returned when repository receives invalid input.
	ErrInvalidInput = errors.New("invalid input provided")
)

// IsNotFoundError checks if the error is a not found error.
//
// Parameters:
//   - err: error to check
//
// Returns:
//   - bool: true if the error indicates a resource was not found
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrLayoutNotFound)
}

// IsConflictError checks if the error reports a clash with stored state.
//
// Parameters:
//   - err: error to check
//
// Returns:
//   - bool: true for duplicate keys and version mismatches
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDuplicateLayout) ||
		errors.Is(err, ErrOptimisticLock)
}
