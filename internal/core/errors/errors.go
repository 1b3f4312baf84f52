// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Identity resolution errors. These never abort a run; rejected records are
// reported and excluded from the merge.
var (
	// ErrMissingEmail indicates a faculty record has no usable email.
	ErrMissingEmail = errors.New("missing usable email")

	// ErrMissingArticleID indicates a research output has no article id.
	ErrMissingArticleID = errors.New("missing article id")

	// ErrMissingPersonID indicates a research output is not linked to a person.
	ErrMissingPersonID = errors.New("missing person id")

	// ErrUnknownPerson indicates a research output references a person that is
	// not in the faculty table.
	ErrUnknownPerson = errors.New("unknown person id")
)

// Classifier errors.
var (
	// ErrRetriesExhausted indicates every attempt of a retried call failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrInvalidResponse indicates a response could not be interpreted.
	ErrInvalidResponse = errors.New("invalid response")
)

// Storage errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedDriver indicates an unknown storage or index driver.
	ErrUnsupportedDriver = errors.New("unsupported driver")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
