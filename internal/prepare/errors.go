package prepare

import (
	"errors"
	"fmt"
)

// Page preparation errors. All of them are caller-fixable input problems.
var (
	// ErrUnsupportedFormat is returned when the file extension is not one of
	// the allowed types.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument is returned for zero-byte files and PDFs without pages.
	ErrEmptyDocument = errors.New("document has no pages")

	// ErrInvalidInput is returned when the path does not name a readable regular file.
	ErrInvalidInput = errors.New("invalid document input")

	// ErrInvalidDocument is returned when the file cannot be decoded or rendered.
	ErrInvalidDocument = errors.New("invalid or corrupted document")

	// ErrFileTooLarge is returned when the file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("document exceeds maximum size limit")
)

// PrepareError wraps errors with the failing operation and file.
type PrepareError struct {
	// Op is the operation that failed (e.g., "Prepare", "renderPDF").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PrepareError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("prepare: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("prepare: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PrepareError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *PrepareError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapPrepareError wraps an error as a PrepareError if it isn't already one.
func WrapPrepareError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var prepErr *PrepareError
	if errors.As(err, &prepErr) {
		return err
	}

	return &PrepareError{Op: op, Err: err, Details: details}
}
