package models

import "fmt"

// The review engine returns typed errors rather than opaque ones so the API
// layer can map each category to a distinct response shape.

// ValidationError reports a malformed payload or a bad stage-name set.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Detail
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing idea, stage state, or workflow.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError reports a stale expectedStateVersion. It is distinct from
// NotFoundError: the item has state, but someone else moved it first. The
// caller must refetch before retrying; the server never retries or merges.
type ConflictError struct {
	ItemID          string
	ExpectedVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stage state for item %q changed since version %d was read; refresh and retry", e.ItemID, e.ExpectedVersion)
}

// InvalidTransitionError reports a structurally disallowed move. The reason
// names exactly which precondition failed.
type InvalidTransitionError struct {
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return "invalid transition: " + e.Reason
}

// NewInvalidTransition builds an InvalidTransitionError from a format string.
func NewInvalidTransition(format string, args ...any) *InvalidTransitionError {
	return &InvalidTransitionError{Reason: fmt.Sprintf(format, args...)}
}
