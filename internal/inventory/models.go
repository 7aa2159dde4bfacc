package inventory

import "time"

// DonationLot is one donated medicine batch, the unit the reservation
// engine and recall sweep operate on.
type DonationLot struct {
	ID           string
	MedicineName string
	Brand        string
	Dosage       string
	Category     string
	Condition    string // unopened | opened | partial
	Quantity     int
	ExpiryDate   time.Time
	DonorName    string
	DonorEmail   string
	DonorID      string
	Notes        string
	Status       Status
	Reserved     bool
	ReservedBy   string
	ReviewerID   string
	ReviewNotes  string
	ReviewedAt   *time.Time
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID           string
	Name         string
	Category     string
	Manufacturer string
	PriceCents   int
	Stock        int
	Verified     bool
	ExpiryDate   time.Time
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CartKey identifies a cart by exactly one of an authenticated user or an
// anonymous session.
type CartKey struct {
	UserID    string
	SessionID string
}

func (k CartKey) Validate() error {
	switch {
	case k.UserID == "" && k.SessionID == "":
		return &ValidationError{Field: "cart key", Reason: "user id or session id required"}
	case k.UserID != "" && k.SessionID != "":
		return &ValidationError{Field: "cart key", Reason: "user id and session id are mutually exclusive"}
	}
	return nil
}

type CartItem struct {
	ProductID      string
	Quantity       int
	UnitPriceCents int
	AddedAt        time.Time
}

// Cart totals are always recomputed server-side from the line items,
// never accepted from the caller.
type Cart struct {
	ID         string
	Key        CartKey
	Items      []CartItem
	TotalCents int
	TotalItems int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

func (a ShippingAddress) Validate() error {
	fields := []struct{ name, v string }{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"email", a.Email},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zip_code", a.ZipCode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if f.v == "" {
			return &ValidationError{Field: "shipping_address." + f.name, Reason: "required"}
		}
	}
	return nil
}

type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit-card"
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank-transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentPaypal, PaymentBankTransfer:
		return true
	}
	return false
}

// OrderItem is a frozen snapshot of a product at checkout time.
type OrderItem struct {
	ProductID      string
	Name           string
	Category       string
	Manufacturer   string
	UnitPriceCents int
	Quantity       int
	ExpiryDate     time.Time
}

type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	Items           []OrderItem
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	PromoCode       string
	SubtotalCents   int
	DiscountCents   int
	ShippingCents   int
	TaxCents        int
	TotalCents      int
	PaymentStatus   string // pending | paid | failed | refunded
	OrderStatus     string // pending | confirmed | processing | shipped | delivered | cancelled
	CreatedAt       time.Time
}

// Reservation is the transactional link recording which party reserved how
// many units of which lot. Unique per (lot, requester) so a retried
// reserve never decrements twice.
type Reservation struct {
	ID          string
	LotID       string
	RequesterID string
	Quantity    int
	Status      string // RESERVED | RELEASED
	CreatedAt   time.Time
}

// ReservationResult is returned to the requester; Remaining is the lot
// quantity left after the claim, LotStatus reflects any automatic advance
// to distributed.
type ReservationResult struct {
	ReservationID string
	LotID         string
	Quantity      int
	Remaining     int
	LotStatus     Status
	Idempotent    bool
}
