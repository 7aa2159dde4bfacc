package recall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/vitamend/go-donation-inventory/internal/inventory"
	kafkax "github.com/vitamend/go-donation-inventory/internal/kafka"
	"github.com/vitamend/go-donation-inventory/internal/redisx"
)

// Sweeper flips lots matching a safety advisory to recalled. It shares
// the record store's version guard with the reservation engine, so a
// sweep racing an in-flight reserve never corrupts quantity: whichever
// commits first wins and the loser retries against the fresh state.
type Sweeper struct {
	Store    *inventory.Store
	Feed     *FeedClient
	Redis    *redis.Client
	Producer *kafkax.Producer   // lot.recalled events, may be nil
	Notifier inventory.Notifier // donor notifications, may be nil
	Service  string
}

// Run processes the given advisories and returns the ids of lots it
// transitioned to recalled.
func (s *Sweeper) Run(ctx context.Context, advisories []Advisory) ([]string, error) {
	var affected []string
	for _, adv := range advisories {
		if adv.MedicineName == "" {
			continue
		}
		lots, err := s.Store.FindLotsByMedicine(ctx, adv.MedicineName)
		if err != nil {
			return affected, err
		}
		for _, lot := range lots {
			if lot.Status == inventory.StatusDistributed && lot.Quantity == 0 {
				// fully consumed; nothing left to pull back
				log.Printf("recall noted, too late: lot=%s medicine=%s", lot.ID, lot.MedicineName)
				continue
			}
			reason := "Safety recall: " + adv.Reason
			recalled, err := s.Store.MarkRecalled(ctx, lot.ID, reason)
			if errors.Is(err, inventory.ErrConflict) {
				recalled, err = s.Store.MarkRecalled(ctx, lot.ID, reason)
			}
			if err != nil {
				var it *inventory.InvalidTransitionError
				if errors.As(err, &it) || errors.Is(err, inventory.ErrConflict) {
					// the lot moved under us (reserved out, drained to
					// fully consumed, or already terminal); skip rather
					// than fight
					log.Printf("recall skipped: lot=%s: %v", lot.ID, err)
					continue
				}
				return affected, err
			}
			affected = append(affected, recalled.ID)
			s.emitRecalled(ctx, recalled, adv.Reason)
		}
	}
	return affected, nil
}

// PollOnce fetches recent advisories from the feed and sweeps them. Feed
// failures are returned as ExternalDependencyError and leave inventory
// untouched.
func (s *Sweeper) PollOnce(ctx context.Context) ([]string, error) {
	since := time.Now().AddDate(0, 0, -30)
	if s.Redis != nil {
		if v, err := s.Redis.Get(ctx, redisx.KeySweepLastRun).Result(); err == nil {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				since = t
			}
		}
	}

	advisories, err := s.Feed.FetchRecentAdvisories(ctx, since)
	if err != nil {
		return nil, err
	}

	affected, err := s.Run(ctx, advisories)
	if err != nil {
		return affected, err
	}
	if s.Redis != nil {
		_ = s.Redis.Set(ctx, redisx.KeySweepLastRun, time.Now().UTC().Format(time.RFC3339), 0).Err()
	}
	return affected, nil
}

// HandleAdvisory consumes one advisory from the recall topic, deduped via
// Redis so redelivery is harmless.
func (s *Sweeper) HandleAdvisory(ctx context.Context, m kafkago.Message) error {
	var adv Advisory
	if err := json.Unmarshal(m.Value, &adv); err != nil {
		return err
	}
	if adv.ID != "" && s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "recall", adv.ID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	_, err := s.Run(ctx, []Advisory{adv})
	return err
}

func (s *Sweeper) emitRecalled(ctx context.Context, lot inventory.DonationLot, reason string) {
	if s.Producer != nil {
		ev := inventory.Envelope{
			EventID:       uuid.NewString(),
			EventType:     inventory.EventLotRecalled,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      s.Service,
			CorrelationID: lot.ID,
			Payload: kafkax.MustMarshal(inventory.LotRecalledPayload{
				LotID:        lot.ID,
				MedicineName: lot.MedicineName,
				Reason:       reason,
			}),
		}
		s.Producer.Publish(inventory.PartitionKey(lot.ID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(inventory.EventLotRecalled)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	if s.Notifier != nil && lot.DonorID != "" {
		s.Notifier.Notify(ctx, lot.DonorID, "Medicine Recalled",
			fmt.Sprintf("Your donation of %s was recalled: %s", lot.MedicineName, reason),
			"recall", map[string]any{"lot_id": lot.ID})
	}
}
