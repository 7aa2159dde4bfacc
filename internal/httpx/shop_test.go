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
	"github.com/vitamend/go-donation-inventory/internal/redisx"
)

// The post-checkout status poll is answered from the cache written at
// checkout time; no Store is wired, so a database fallthrough would
// panic.
func TestGetOrderStatus_servesFromCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redisx.New(addr)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	key := fmt.Sprintf(redisx.KeyOrderStatus, "order-cache-hit")
	if err := rdb.Set(ctx, key, `{"status":"confirmed"}`, redisx.TTLStatusCache).Err(); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Del(ctx, key).Err() })

	h := &Handler{Redis: rdb}
	r := chi.NewRouter()
	r.Get("/orders/{id}/status", h.getOrderStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/orders/order-cache-hit/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "confirmed" {
		t.Errorf("status = %q, want cached confirmed", body["status"])
	}
}
