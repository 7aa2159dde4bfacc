package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	kafkago "github.com/segmentio/kafka-go"
	kafkax "github.com/vitamend/go-donation-inventory/internal/kafka"
)

// ReservationEngine lets an NGO claim units of a verified lot. Two
// concurrent claims on the same lot can never jointly exceed its
// quantity; the version guard in ApplyLotDelta resolves the race and the
// loser retries once with a fresh read.
type ReservationEngine struct {
	Store    *Store
	Producer *kafkax.Producer // medicine.requested events, may be nil
	Notifier Notifier         // donor notifications, may be nil
	Service  string
}

func (e *ReservationEngine) Reserve(ctx context.Context, lotID, requesterID string, qty int) (ReservationResult, error) {
	if requesterID == "" {
		return ReservationResult{}, &ValidationError{Field: "requester_id", Reason: "required"}
	}
	if qty < 1 {
		return ReservationResult{}, &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	res, lot, err := e.reserveOnce(ctx, lotID, requesterID, qty)
	if errors.Is(err, ErrConflict) {
		res, lot, err = e.reserveOnce(ctx, lotID, requesterID, qty)
	}
	if err != nil {
		return ReservationResult{}, err
	}

	if !res.Idempotent {
		e.emitRequested(ctx, lot, requesterID, qty, res.Remaining)
	}
	return res, nil
}

func (e *ReservationEngine) reserveOnce(ctx context.Context, lotID, requesterID string, qty int) (ReservationResult, DonationLot, error) {
	tx, err := e.Store.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReservationResult{}, DonationLot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Idempotency short-circuit per (lot, requester): a retried reserve
	// returns the recorded claim without decrementing again.
	var existingID string
	var existingQty int
	err = tx.QueryRow(ctx, `
		SELECT id, quantity FROM reservations
		WHERE lot_id=$1 AND requester_id=$2 AND status='RESERVED'`,
		lotID, requesterID).Scan(&existingID, &existingQty)
	if err == nil {
		lot, lerr := scanLot(tx.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id=$1`, lotID))
		if lerr != nil {
			return ReservationResult{}, DonationLot{}, lerr
		}
		return ReservationResult{
			ReservationID: existingID,
			LotID:         lotID,
			Quantity:      existingQty,
			Remaining:     lot.Quantity,
			LotStatus:     lot.Status,
			Idempotent:    true,
		}, lot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ReservationResult{}, DonationLot{}, err
	}

	lot, err := scanLot(tx.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id=$1`, lotID))
	if err != nil {
		return ReservationResult{}, DonationLot{}, err
	}
	if lot.Status != StatusVerified {
		return ReservationResult{}, DonationLot{}, &InvalidTransitionError{From: lot.Status, To: StatusDistributed}
	}
	if qty > lot.Quantity {
		return ReservationResult{}, DonationLot{}, &InsufficientStockError{
			RecordID: lotID, Name: lot.MedicineName, Requested: qty, Available: lot.Quantity,
		}
	}

	lot, err = e.Store.ApplyLotDelta(ctx, tx, lotID, -qty, StatusVerified)
	if err != nil {
		return ReservationResult{}, DonationLot{}, err
	}

	resID := uuid.NewString()
	ct, err := tx.Exec(ctx, `
		INSERT INTO reservations (id, lot_id, requester_id, quantity, status)
		VALUES ($1,$2,$3,$4,'RESERVED')
		ON CONFLICT (lot_id, requester_id) DO NOTHING`,
		resID, lotID, requesterID, qty)
	if err != nil {
		return ReservationResult{}, DonationLot{}, err
	}
	if ct.RowsAffected() != 1 {
		// a concurrent claim for the same pair committed first; retry takes
		// the idempotent path
		return ReservationResult{}, DonationLot{}, ErrConflict
	}

	// Reservation flag is metadata, not quantity; it does not need the
	// version guard.
	if lot.Quantity > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE lots SET reserved=true, reserved_by=$1, updated_at=now() WHERE id=$2`,
			requesterID, lotID); err != nil {
			return ReservationResult{}, DonationLot{}, err
		}
		lot.Reserved = true
		lot.ReservedBy = requesterID
	}

	if err := tx.Commit(ctx); err != nil {
		return ReservationResult{}, DonationLot{}, err
	}
	return ReservationResult{
		ReservationID: resID,
		LotID:         lotID,
		Quantity:      qty,
		Remaining:     lot.Quantity,
		LotStatus:     lot.Status,
	}, lot, nil
}

// ListReservations returns the recorded claims against one lot, newest
// first.
func (s *Store) ListReservations(ctx context.Context, lotID string) ([]Reservation, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, lot_id, requester_id, quantity, status, created_at
		FROM reservations WHERE lot_id=$1 ORDER BY created_at DESC`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.LotID, &r.RequesterID, &r.Quantity, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// emitRequested publishes the domain event and notifies the donor.
// Both are fire-and-forget; a failure never rolls back the reservation.
func (e *ReservationEngine) emitRequested(ctx context.Context, lot DonationLot, requesterID string, qty, remaining int) {
	if e.Producer != nil {
		ev := Envelope{
			EventID:       uuid.NewString(),
			EventType:     EventMedicineRequested,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      e.Service,
			CorrelationID: lot.ID,
			Payload: kafkax.MustMarshal(MedicineRequestedPayload{
				LotID:        lot.ID,
				MedicineName: lot.MedicineName,
				RequesterID:  requesterID,
				Quantity:     qty,
				Remaining:    remaining,
			}),
		}
		e.Producer.Publish(PartitionKey(lot.ID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(EventMedicineRequested)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	if e.Notifier != nil && lot.DonorID != "" {
		e.Notifier.Notify(ctx, lot.DonorID, "Medicine Requested",
			fmt.Sprintf("An NGO has requested %d units of %s from your donation.", qty, lot.MedicineName),
			"donation", map[string]any{"lot_id": lot.ID})
	}
}
