package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced lot, product, or cart does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means the record changed between read and write. Safe to
	// retry once with a fresh read.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrEmptyCart means checkout was attempted against a missing or empty
	// cart, including a retried checkout after the cart was already cleared.
	ErrEmptyCart = errors.New("cart is empty")
)

// InvalidTransitionError reports a lifecycle transition outside the
// state-machine table, naming both ends so the caller can tell "not yet
// verified" apart from a terminal state.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// InsufficientStockError reports a decrement that would drive quantity
// negative. Name is filled when known so the message can be rendered
// without a second lookup.
type InsufficientStockError struct {
	RecordID  string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for record %s: requested %d, available %d", e.RecordID, e.Requested, e.Available)
}

// ValidationError reports malformed input rejected at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExternalDependencyError wraps a failure of a best-effort collaborator
// (advisory feed, notification dispatch). Never fatal to an inventory
// transaction.
type ExternalDependencyError struct {
	Dependency string
	Err        error
}

func (e *ExternalDependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *ExternalDependencyError) Unwrap() error { return e.Err }
