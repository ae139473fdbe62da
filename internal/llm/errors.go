package llm

import (
	"errors"
	"fmt"
)

// Extraction errors. None of them is retried by this package; the caller
// decides whether to resubmit the whole document.
var (
	// ErrInferenceTimeout is returned when the model does not answer within
	// the client timeout or the context deadline.
	ErrInferenceTimeout = errors.New("inference request timed out")

	// ErrInferenceUnreachable is returned when the inference endpoint cannot
	// be reached (connection refused, DNS failure, dropped connection).
	ErrInferenceUnreachable = errors.New("inference endpoint unreachable")

	// ErrInferenceRequestFailed is matched by every *RequestFailedError.
	ErrInferenceRequestFailed = errors.New("inference request failed")

	// ErrInvalidResponse is returned when the endpoint answers 2xx with a body
	// that is not the expected envelope.
	ErrInvalidResponse = errors.New("invalid inference response")

	// ErrInvalidInput is returned for an empty image payload.
	ErrInvalidInput = errors.New("invalid extraction input")

	// ErrMissingCredentials is returned when a cloud provider has no credentials.
	ErrMissingCredentials = errors.New("missing provider credentials")

	// ErrInvalidConfiguration is returned when a provider is misconfigured.
	ErrInvalidConfiguration = errors.New("invalid extraction provider configuration")
)

// RequestFailedError reports a non-2xx answer from the inference endpoint.
type RequestFailedError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("inference request failed with status %d: %s", e.StatusCode, e.Body)
}

// Is makes errors.Is(err, ErrInferenceRequestFailed) match.
func (e *RequestFailedError) Is(target error) bool {
	return target == ErrInferenceRequestFailed
}

// ExtractionError wraps errors with the failing operation.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "Extract", "NewOpenAIExtractor").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("llm: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("llm: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err
	}

	return &ExtractionError{Op: op, Err: err, Details: details}
}
