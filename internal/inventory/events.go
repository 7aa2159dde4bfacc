package inventory

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventMedicineRequested = "MedicineRequested"
	EventLotRecalled       = "LotRecalled"
	EventOrderCreated      = "OrderCreated"
	EventNotification      = "Notification"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // lot id or order id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type MedicineRequestedPayload struct {
	LotID        string `json:"lot_id"`
	MedicineName string `json:"medicine_name"`
	RequesterID  string `json:"requester_id"`
	Quantity     int    `json:"quantity"`
	Remaining    int    `json:"remaining"`
}

type LotRecalledPayload struct {
	LotID        string `json:"lot_id"`
	MedicineName string `json:"medicine_name"`
	Reason       string `json:"reason"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id,omitempty"`
	ItemCount   int    `json:"item_count"`
	TotalCents  int    `json:"total_cents"`
}

type NotificationPayload struct {
	UserID  string         `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
}

// Notifier is the external notification collaborator. Dispatch is
// fire-and-forget: a failure is logged by the implementation and never
// propagated into an inventory transaction.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, typ string, data map[string]any)
}
