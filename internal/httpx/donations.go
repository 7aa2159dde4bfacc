package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vitamend/go-donation-inventory/internal/inventory"
	"github.com/vitamend/go-donation-inventory/internal/recall"
	"github.com/vitamend/go-donation-inventory/internal/redisx"
)

type createDonationReq struct {
	MedicineName string    `json:"medicine_name"`
	Brand        string    `json:"brand"`
	Dosage       string    `json:"dosage"`
	Category     string    `json:"category"`
	Condition    string    `json:"condition"`
	Quantity     int       `json:"quantity"`
	ExpiryDate   time.Time `json:"expiry_date"`
	DonorName    string    `json:"donor_name"`
	DonorEmail   string    `json:"donor_email"`
	DonorID      string    `json:"donor_id"`
	Notes        string    `json:"notes"`
}

func (h *Handler) createDonation(w http.ResponseWriter, r *http.Request) {
	var req createDonationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lot, err := h.Store.CreateLot(ctx, inventory.NewLot{
		MedicineName: req.MedicineName,
		Brand:        req.Brand,
		Dosage:       req.Dosage,
		Category:     req.Category,
		Condition:    req.Condition,
		Quantity:     req.Quantity,
		ExpiryDate:   req.ExpiryDate,
		DonorName:    req.DonorName,
		DonorEmail:   req.DonorEmail,
		DonorID:      req.DonorID,
		Notes:        req.Notes,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

func (h *Handler) listDonations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	lots, total, err := h.Store.ListAvailableLots(ctx, inventory.LotFilter{
		Status:   inventory.Status(q.Get("status")),
		Category: q.Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"donations": lots,
		"total":     total,
	})
}

func (h *Handler) getDonation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lot, err := h.Store.GetLot(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

type reviewReq struct {
	Decision   string `json:"decision"` // verified | rejected
	Notes      string `json:"notes"`
	ReviewerID string `json:"reviewer_id"`
}

func (h *Handler) reviewDonation(w http.ResponseWriter, r *http.Request) {
	var req reviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lotID := chi.URLParam(r, "id")
	lot, err := h.Store.ReviewLot(ctx, inventory.ReviewDecision{
		LotID:      lotID,
		Decision:   inventory.Status(req.Decision),
		Notes:      req.Notes,
		ReviewerID: req.ReviewerID,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheLotStatus(ctx, lot)
	writeJSON(w, http.StatusOK, lot)
}

type reserveReq struct {
	RequesterID string `json:"requester_id"`
	Quantity    int    `json:"quantity"`
}

func (h *Handler) reserveMedicine(w http.ResponseWriter, r *http.Request) {
	var req reserveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.Reserve(ctx, chi.URLParam(r, "id"), req.RequesterID, req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyLotStatus, res.LotID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, res.LotStatus), redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res, err := h.Store.ListReservations(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// getDonationStatus answers the hot "is it still available" poll from
// the cache, falling back to (and repopulating from) the database.
func (h *Handler) getDonationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lotID := chi.URLParam(r, "id")
	key := fmt.Sprintf(redisx.KeyLotStatus, lotID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s))
		return
	}

	lot, err := h.Store.GetLot(ctx, lotID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheLotStatus(ctx, lot)
	writeJSON(w, http.StatusOK, map[string]inventory.Status{"status": lot.Status})
}

func (h *Handler) cacheLotStatus(ctx context.Context, lot inventory.DonationLot) {
	key := fmt.Sprintf(redisx.KeyLotStatus, lot.ID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, lot.Status), redisx.TTLStatusCache).Err()
}

type sweepReq struct {
	Advisories []struct {
		MedicineName string `json:"medicine_name"`
		Reason       string `json:"reason"`
	} `json:"advisories"`
}

// runSweep is the admin trigger: sweeps an explicit advisory list, or
// polls the feed when the body is empty or names no advisories.
func (h *Handler) runSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var (
		affected []string
		err      error
	)
	if len(req.Advisories) == 0 {
		affected, err = h.Sweeper.PollOnce(ctx)
	} else {
		list := make([]recall.Advisory, 0, len(req.Advisories))
		for _, a := range req.Advisories {
			list = append(list, recall.Advisory{MedicineName: a.MedicineName, Reason: a.Reason})
		}
		affected, err = h.Sweeper.Run(ctx, list)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"affected_lot_ids": affected})
}
