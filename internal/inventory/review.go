package inventory

import "context"

// ReviewDecision is the typed update command for a reviewer action.
// Arbitrary field patches are rejected at the boundary; only these fields
// can change through a review.
type ReviewDecision struct {
	LotID      string
	Decision   Status // StatusVerified or StatusRejected
	Notes      string
	ReviewerID string
}

func (d ReviewDecision) validate() error {
	if d.Decision != StatusVerified && d.Decision != StatusRejected {
		return &ValidationError{Field: "decision", Reason: "must be verified or rejected"}
	}
	if d.Notes == "" {
		if d.Decision == StatusRejected {
			return &ValidationError{Field: "notes", Reason: "rejection requires a reason"}
		}
		return &ValidationError{Field: "notes", Reason: "verification requires notes"}
	}
	if d.ReviewerID == "" {
		return &ValidationError{Field: "reviewer_id", Reason: "required"}
	}
	return nil
}

// ReviewLot applies a pending -> verified/rejected transition with the
// reviewer's metadata. Any other starting state fails with
// InvalidTransitionError.
func (s *Store) ReviewLot(ctx context.Context, d ReviewDecision) (DonationLot, error) {
	if err := d.validate(); err != nil {
		return DonationLot{}, err
	}
	lot, err := s.GetLot(ctx, d.LotID)
	if err != nil {
		return DonationLot{}, err
	}
	if lot.Status != StatusPending || !CanTransition(lot.Status, d.Decision) {
		return DonationLot{}, &InvalidTransitionError{From: lot.Status, To: d.Decision}
	}

	ct, err := s.Pool.Exec(ctx, `
		UPDATE lots SET status=$1, reviewer_id=$2, review_notes=$3, reviewed_at=now(),
			version=version+1, updated_at=now()
		WHERE id=$4 AND version=$5`,
		d.Decision, d.ReviewerID, d.Notes, d.LotID, lot.Version)
	if err != nil {
		return DonationLot{}, err
	}
	if ct.RowsAffected() != 1 {
		return DonationLot{}, ErrConflict
	}
	return s.GetLot(ctx, d.LotID)
}
