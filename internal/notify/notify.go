// Package notify dispatches user notifications over the notification
// topic. Delivery is owned by an external collaborator; this side only
// publishes and never blocks or fails an inventory operation.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/vitamend/go-donation-inventory/internal/inventory"
	kafkax "github.com/vitamend/go-donation-inventory/internal/kafka"
)

type Dispatcher struct {
	Producer *kafkax.Producer
	Service  string
}

func (d *Dispatcher) Notify(ctx context.Context, userID, title, message, typ string, data map[string]any) {
	if d == nil || d.Producer == nil {
		return
	}
	ev := inventory.Envelope{
		EventID:       uuid.NewString(),
		EventType:     inventory.EventNotification,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      d.Service,
		CorrelationID: userID,
		Payload: kafkax.MustMarshal(inventory.NotificationPayload{
			UserID:  userID,
			Title:   title,
			Message: message,
			Type:    typ,
			Data:    data,
		}),
	}
	d.Producer.Publish(inventory.PartitionKey(userID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(inventory.EventNotification)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
