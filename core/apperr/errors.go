package apperr

import "errors"

// Error categories shared across the service. Components wrap these with
// fmt.Errorf("...: %w", ErrX) and the API layer maps them to status codes.
var (
	// ErrInvalidInput means caller-supplied data is malformed or missing.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means a referenced model, notebook or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTimeoutExceeded means an external job ran past its budget.
	// Reported inside an ExecutionReport, never returned from a handler.
	ErrTimeoutExceeded = errors.New("timeout exceeded")

	// ErrExternalJobFailure means an external job exited non-zero.
	ErrExternalJobFailure = errors.New("external job failure")

	// ErrInternal is anything unexpected.
	ErrInternal = errors.New("internal error")
)

// IsClientError reports whether err should be surfaced to the caller as a 4xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)
}
