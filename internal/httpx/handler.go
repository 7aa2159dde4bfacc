package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/vitamend/go-donation-inventory/internal/inventory"
	"github.com/vitamend/go-donation-inventory/internal/recall"
)

// Handler exposes the inventory core to the surrounding service. The
// caller's role check happens upstream; preconditions like "only a
// verified lot can be reserved" are still re-validated here regardless.
type Handler struct {
	Store    *inventory.Store
	Engine   *inventory.ReservationEngine
	Checkout *inventory.CheckoutService
	Sweeper  *recall.Sweeper
	Redis    *redis.Client
}

func (h *Handler) Register(r *chi.Mux) {
	r.Get("/donations", h.listDonations)
	r.Post("/donations", h.createDonation)
	r.Get("/donations/{id}", h.getDonation)
	r.Get("/donations/{id}/status", h.getDonationStatus)
	r.Post("/donations/{id}/review", h.reviewDonation)
	r.Post("/donations/{id}/reserve", h.reserveMedicine)
	r.Get("/donations/{id}/reservations", h.listReservations)

	r.Get("/products", h.listProducts)
	r.Get("/cart", h.getCart)
	r.Post("/cart", h.addToCart)
	r.Put("/cart/items/{productID}", h.updateCartItem)
	r.Delete("/cart/items/{productID}", h.removeFromCart)
	r.Delete("/cart", h.clearCart)
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)

	r.Post("/recalls/sweep", h.runSweep)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the core's error taxonomy to HTTP, keeping the
// structured detail (record id, requested vs available) in the body so
// the caller can render a message without re-querying.
func writeErr(w http.ResponseWriter, err error) {
	var (
		stockErr *inventory.InsufficientStockError
		transErr *inventory.InvalidTransitionError
		valErr   *inventory.ValidationError
		depErr   *inventory.ExternalDependencyError
	)
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     stockErr.Error(),
			"record_id": stockErr.RecordID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": transErr.Error(),
			"from":  transErr.From,
			"to":    transErr.To,
		})
	case errors.Is(err, inventory.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "retryable": "true"})
	case errors.Is(err, inventory.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": valErr.Error(), "field": valErr.Field})
	case errors.As(err, &depErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": depErr.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// cartKey builds the mutually-exclusive user/session cart key. An
// authenticated identity wins over a session header.
func cartKey(r *http.Request) inventory.CartKey {
	if uid := r.Header.Get("X-User-ID"); uid != "" {
		return inventory.CartKey{UserID: uid}
	}
	return inventory.CartKey{SessionID: r.Header.Get("X-Session-ID")}
}
