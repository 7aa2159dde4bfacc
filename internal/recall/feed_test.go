package recall

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vitamend/go-donation-inventory/internal/inventory"
)

func TestExtractMedicineNames(t *testing.T) {
	tests := []struct {
		desc string
		want []string
	}{
		{"Amoxicillin Tablets, 500 count bottles", []string{"Amoxicillin"}},
		{"Metformin Hydrochloride 850 mg, lot 12345", []string{"Metformin Hydrochloride"}},
		{"Ibuprofen Capsules and Naproxen Tablets", []string{"Ibuprofen", "Naproxen"}},
		{"sterile saline solution", nil},
	}
	for _, tt := range tests {
		got := ExtractMedicineNames(tt.desc)
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.desc, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: got %v, want %v", tt.desc, got, tt.want)
				break
			}
		}
	}
}

func TestFetchRecentAdvisories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "100" {
			t.Errorf("limit = %q, want 100", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"recall_number":"D-001-2026","product_description":"Amoxicillin Tablets, 500mg","reason_for_recall":"contamination"}
		]}`))
	}))
	defer srv.Close()

	c := NewFeedClient(srv.URL)
	got, err := c.FetchRecentAdvisories(context.Background(), time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d advisories, want 1", len(got))
	}
	if got[0].MedicineName != "Amoxicillin" {
		t.Errorf("medicine = %q, want Amoxicillin", got[0].MedicineName)
	}
	if got[0].Reason != "contamination" {
		t.Errorf("reason = %q", got[0].Reason)
	}
	if got[0].ID == "" {
		t.Error("advisory id should be set for dedup")
	}
}

func TestFetchRecentAdvisories_feedDownIsExternalDependencyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewFeedClient(srv.URL)
	_, err := c.FetchRecentAdvisories(context.Background(), time.Now())
	var de *inventory.ExternalDependencyError
	if !errors.As(err, &de) {
		t.Fatalf("want ExternalDependencyError, got %v", err)
	}
	if de.Dependency != "advisory feed" {
		t.Errorf("dependency = %q", de.Dependency)
	}
}
