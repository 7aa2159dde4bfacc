package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/vitamend/go-donation-inventory/internal/recall"
	"github.com/vitamend/go-donation-inventory/internal/redisx"
)

// A cached lot status must be served without touching the database; the
// handler has no Store here, so a fallthrough would panic.
func TestGetDonationStatus_servesFromCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redisx.New(addr)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	key := fmt.Sprintf(redisx.KeyLotStatus, "lot-cache-hit")
	if err := rdb.Set(ctx, key, `{"status":"verified"}`, redisx.TTLStatusCache).Err(); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Del(ctx, key).Err() })

	h := &Handler{Redis: rdb}
	r := chi.NewRouter()
	r.Get("/donations/{id}/status", h.getDonationStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/donations/lot-cache-hit/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "verified" {
		t.Errorf("status = %q, want cached verified", body["status"])
	}
}

// POST /recalls/sweep with no body polls the feed instead of failing on
// json decode.
func TestRunSweep_emptyBodyPollsFeed(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(feed.Close)

	h := &Handler{Sweeper: &recall.Sweeper{Feed: recall.NewFeedClient(feed.URL)}}
	w := httptest.NewRecorder()
	h.runSweep(w, httptest.NewRequest("POST", "/recalls/sweep", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["affected_lot_ids"]; !ok {
		t.Error("response missing affected_lot_ids")
	}
}
