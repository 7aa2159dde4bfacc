package inventory

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidTransitionError_namesBothStates(t *testing.T) {
	err := &InvalidTransitionError{From: StatusPending, To: StatusDistributed}
	want := `invalid transition from "pending" to "distributed"`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestInsufficientStockError_detail(t *testing.T) {
	err := &InsufficientStockError{RecordID: "p1", Name: "Paracetamol", Requested: 6, Available: 4}
	want := "insufficient stock for Paracetamol: requested 6, available 4"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	noName := &InsufficientStockError{RecordID: "p1", Requested: 2, Available: 0}
	if got := noName.Error(); got != "insufficient stock for record p1: requested 2, available 0" {
		t.Errorf("got %q", got)
	}
}

func TestExternalDependencyError_unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ExternalDependencyError{Dependency: "advisory feed", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ExternalDependencyError should unwrap to its cause")
	}
	if err.Error() != "advisory feed unavailable: connection refused" {
		t.Errorf("got %q", err.Error())
	}
}

func TestErrorsAs_throughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("reserve: %w", &InsufficientStockError{RecordID: "l1", Requested: 6, Available: 4})
	var se *InsufficientStockError
	if !errors.As(wrapped, &se) {
		t.Fatal("errors.As should find InsufficientStockError")
	}
	if se.Available != 4 {
		t.Errorf("available = %d, want 4", se.Available)
	}

	if !errors.Is(fmt.Errorf("op: %w", ErrConflict), ErrConflict) {
		t.Error("wrapped ErrConflict should match with errors.Is")
	}
}
