package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Each condition maps to exactly one reported outcome at the
// edges (HTTP status, CLI exit message); callers test with errors.Is.
var (
	// ErrNotFound indicates the requested problem, slug or id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPaidOnly indicates the upstream problem is restricted to subscribers.
	ErrPaidOnly = errors.New("paid-only problem")

	// ErrUpstreamUnavailable indicates the embedding provider, a store, or the
	// problem source was unreachable or returned an error. Retrying is the
	// caller's decision; the core never retries.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidFilter indicates an unsupported filter value or text field.
	// It is always raised before any I/O.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidInput indicates malformed input such as mismatched chunk and
	// vector counts or an empty query.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a write that would break a uniqueness rule, such
	// as a slug already owned by another problem id.
	ErrConflict = errors.New("conflict")
)

// UpstreamError records which dependency failed. It matches
// ErrUpstreamUnavailable under errors.Is and unwraps to the cause so context
// deadline errors stay detectable.
type UpstreamError struct {
	// Component names the dependency (e.g. "qdrant", "postgres", "openai").
	Component string
	// Err is the underlying failure.
	Err error
}

// Unavailable wraps err as an UpstreamError for component. A nil err yields nil.
func Unavailable(component string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Component: component, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Component, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports ErrUpstreamUnavailable as a match.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
