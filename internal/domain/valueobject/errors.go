package valueobject

import (
	"errors"
	"fmt"
)

// Geometry errors define domain-specific error conditions.
var (
	ErrNegativeDimension  = errors.New("dimension cannot be negative")
	ErrInvalidScaleFactor = errors.New("scale factor must be a non-negative number")
	ErrDegenerateGeometry = errors.New("cannot normalize a zero-sized box")
	ErrInvalidFace        = errors.New("face must span two distinct axes")
	ErrInvalidSwap        = errors.New("swap needs two distinct dimensions")
	ErrUnknownDimension   = errors.New("unknown dimension")
	ErrUnknownAxis        = errors.New("unknown axis")
)

// ValidationError reports a field that would leave a box with an invalid value.
// It unwraps to the sentinel describing the rule that was broken.
type ValidationError struct {
	// Field is the offending field (width, height, length, margin, factor).
	Field string

	// Value is the rejected value.
	Value float64

	// Err is the rule that was violated.
	Err error
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field string, value float64, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the violated rule for errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
