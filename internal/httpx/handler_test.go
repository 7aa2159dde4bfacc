package httpx

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/vitamend/go-donation-inventory/internal/inventory"
)

func TestWriteErr_statusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", inventory.ErrNotFound, 404},
		{"conflict", inventory.ErrConflict, 409},
		{"empty cart", inventory.ErrEmptyCart, 400},
		{"invalid transition", &inventory.InvalidTransitionError{From: inventory.StatusPending, To: inventory.StatusDistributed}, 409},
		{"insufficient stock", &inventory.InsufficientStockError{RecordID: "p1", Requested: 6, Available: 4}, 409},
		{"validation", &inventory.ValidationError{Field: "quantity", Reason: "must be positive"}, 400},
		{"external dependency", &inventory.ExternalDependencyError{Dependency: "advisory feed"}, 502},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeErr(w, tt.err)
		if w.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.code)
		}
	}
}

func TestWriteErr_stockDetailInBody(t *testing.T) {
	w := httptest.NewRecorder()
	writeErr(w, &inventory.InsufficientStockError{
		RecordID: "p1", Name: "Ibuprofen", Requested: 6, Available: 4,
	})

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["record_id"] != "p1" {
		t.Errorf("record_id = %v", body["record_id"])
	}
	if body["requested"].(float64) != 6 || body["available"].(float64) != 4 {
		t.Errorf("requested/available = %v/%v, want 6/4", body["requested"], body["available"])
	}
}

func TestCartKey_userWinsOverSession(t *testing.T) {
	r := httptest.NewRequest("GET", "/cart", nil)
	r.Header.Set("X-User-ID", "u1")
	r.Header.Set("X-Session-ID", "s1")

	key := cartKey(r)
	if key.UserID != "u1" || key.SessionID != "" {
		t.Errorf("key = %+v, want user-only", key)
	}

	r2 := httptest.NewRequest("GET", "/cart", nil)
	r2.Header.Set("X-Session-ID", "s1")
	key2 := cartKey(r2)
	if key2.SessionID != "s1" || key2.UserID != "" {
		t.Errorf("key = %+v, want session-only", key2)
	}
}
