package invoice

import (
	"errors"
	"fmt"
)

// Normalization errors. Malformed candidate data never produces an error;
// it degrades to null fields, validation errors and warnings instead.
var (
	// ErrInvalidInput is returned when the raw text is not valid UTF-8 or
	// the candidate is missing.
	ErrInvalidInput = errors.New("invalid normalization input")

	// ErrInvalidRules is returned when a tax ID rules file cannot be used.
	ErrInvalidRules = errors.New("invalid tax ID rules")
)

// NormalizationError wraps errors with additional context about the failing step.
type NormalizationError struct {
	// Op is the operation that failed (e.g., "Normalize", "LoadTaxIDRules").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *NormalizationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *NormalizationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewNormalizationError creates a new NormalizationError.
func NewNormalizationError(op string, err error, details string) *NormalizationError {
	return &NormalizationError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapNormalizationError wraps an error as a NormalizationError if it isn't already one.
func WrapNormalizationError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var normErr *NormalizationError
	if errors.As(err, &normErr) {
		return err // Already wrapped
	}

	return NewNormalizationError(op, err, details)
}
