package inventory

import "testing"

func TestCartKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     CartKey
		wantErr bool
	}{
		{"user only", CartKey{UserID: "u1"}, false},
		{"session only", CartKey{SessionID: "s1"}, false},
		{"both set", CartKey{UserID: "u1", SessionID: "s1"}, true},
		{"neither set", CartKey{}, true},
	}
	for _, tt := range tests {
		err := tt.key.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}

func TestShippingAddress_Validate(t *testing.T) {
	full := ShippingAddress{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "555-0100",
		Address: "12 Main St", City: "Pune", State: "MH", ZipCode: "411001", Country: "India",
	}
	if err := full.Validate(); err != nil {
		t.Fatalf("complete address should validate, got %v", err)
	}

	missing := full
	missing.City = ""
	err := missing.Validate()
	if err == nil {
		t.Fatal("missing city should fail validation")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("want *ValidationError, got %T", err)
	}
	if ve.Field != "shipping_address.city" {
		t.Errorf("field = %q, want shipping_address.city", ve.Field)
	}
}

func TestPaymentMethod_Valid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCreditCard, PaymentPaypal, PaymentBankTransfer} {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if PaymentMethod("bitcoin").Valid() {
		t.Error(`"bitcoin" should not be a recognized payment method`)
	}
}

func TestReviewDecision_validate(t *testing.T) {
	tests := []struct {
		name    string
		d       ReviewDecision
		wantErr bool
	}{
		{"verify with notes", ReviewDecision{LotID: "l1", Decision: StatusVerified, Notes: "sealed, intact", ReviewerID: "r1"}, false},
		{"reject with reason", ReviewDecision{LotID: "l1", Decision: StatusRejected, Notes: "damaged packaging", ReviewerID: "r1"}, false},
		{"verify without notes", ReviewDecision{LotID: "l1", Decision: StatusVerified, ReviewerID: "r1"}, true},
		{"reject without reason", ReviewDecision{LotID: "l1", Decision: StatusRejected, ReviewerID: "r1"}, true},
		{"missing reviewer", ReviewDecision{LotID: "l1", Decision: StatusVerified, Notes: "ok"}, true},
		{"bad decision", ReviewDecision{LotID: "l1", Decision: StatusDistributed, Notes: "ok", ReviewerID: "r1"}, true},
	}
	for _, tt := range tests {
		err := tt.d.validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: validate() = %v, wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}
