package inventory

import "testing"

func TestCanTransition_validPaths(t *testing.T) {
	valid := []struct{ from, to Status }{
		{StatusPending, StatusVerified},
		{StatusPending, StatusRejected},
		{StatusPending, StatusRecalled},
		{StatusVerified, StatusDistributed},
		{StatusVerified, StatusRecalled},
		{StatusDistributed, StatusRecalled},
	}
	for _, tt := range valid {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("CanTransition(%q, %q) = false, want true", tt.from, tt.to)
		}
	}
}

func TestCanTransition_invalidPaths(t *testing.T) {
	invalid := []struct{ from, to Status }{
		{StatusPending, StatusDistributed},
		{StatusVerified, StatusPending},
		{StatusVerified, StatusRejected},
		{StatusRejected, StatusVerified},
		{StatusRejected, StatusRecalled},
		{StatusRecalled, StatusPending},
		{StatusRecalled, StatusVerified},
		{StatusRecalled, StatusDistributed},
		{StatusDistributed, StatusVerified},
		{StatusDistributed, StatusPending},
	}
	for _, tt := range invalid {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("CanTransition(%q, %q) = true, want false", tt.from, tt.to)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StatusRejected) {
		t.Error("rejected should be terminal")
	}
	if !Terminal(StatusRecalled) {
		t.Error("recalled should be terminal")
	}
	if Terminal(StatusPending) || Terminal(StatusVerified) {
		t.Error("pending and verified are not terminal")
	}
	// distributed can still be recalled
	if Terminal(StatusDistributed) {
		t.Error("distributed is not fully terminal")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusVerified, StatusRejected, StatusDistributed, StatusRecalled} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("shipped") {
		t.Error(`ValidStatus("shipped") = true, want false`)
	}
}
