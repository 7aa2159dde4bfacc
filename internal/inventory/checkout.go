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

// CheckoutInput carries everything the caller supplies; totals are never
// taken from it.
type CheckoutInput struct {
	Key             CartKey
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	PromoCode       string
}

// CheckoutService converts a cart into an order plus stock decrements as
// one all-or-nothing transaction. The cart's deletion is the idempotence
// boundary: a retried checkout against a cleared cart fails with
// ErrEmptyCart and never creates a duplicate order.
type CheckoutService struct {
	Store    *Store
	Producer *kafkax.Producer // order.created events, may be nil
	Service  string
}

func (c *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (Order, error) {
	if err := in.Key.Validate(); err != nil {
		return Order{}, err
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return Order{}, err
	}
	if !in.PaymentMethod.Valid() {
		return Order{}, &ValidationError{Field: "payment_method", Reason: "must be credit-card, paypal or bank-transfer"}
	}

	tx, err := c.Store.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cart, err := c.Store.loadCart(ctx, tx, in.Key)
	if err != nil {
		return Order{}, err
	}
	if cart.ID == "" || len(cart.Items) == 0 {
		return Order{}, ErrEmptyCart
	}

	// Lock and re-validate every product before any decrement; one
	// failing item aborts the whole checkout with no partial writes.
	products := make(map[string]Product, len(cart.Items))
	for _, it := range cart.Items {
		p, err := scanProduct(tx.QueryRow(ctx,
			`SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, it.ProductID))
		if err != nil {
			return Order{}, err
		}
		if p.Stock < it.Quantity {
			return Order{}, &InsufficientStockError{
				RecordID: p.ID, Name: p.Name, Requested: it.Quantity, Available: p.Stock,
			}
		}
		products[it.ProductID] = p
	}

	totals := ComputeTotals(cart.Items, in.PromoCode)

	order := Order{
		ID:              uuid.NewString(),
		UserID:          in.Key.UserID,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PromoCode:       in.PromoCode,
		SubtotalCents:   totals.SubtotalCents,
		DiscountCents:   totals.DiscountCents,
		ShippingCents:   totals.ShippingCents,
		TaxCents:        totals.TaxCents,
		TotalCents:      totals.TotalCents,
		PaymentStatus:   "pending",
		OrderStatus:     "pending",
	}

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return Order{}, err
	}
	order.OrderNumber = fmt.Sprintf("VM%06d", seq)

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, order_number, user_id, first_name, last_name, email, phone,
			address, city, state, zip_code, country, payment_method, promo_code,
			subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
			payment_status, order_status)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING created_at`,
		order.ID, order.OrderNumber, order.UserID,
		in.ShippingAddress.FirstName, in.ShippingAddress.LastName, in.ShippingAddress.Email,
		in.ShippingAddress.Phone, in.ShippingAddress.Address, in.ShippingAddress.City,
		in.ShippingAddress.State, in.ShippingAddress.ZipCode, in.ShippingAddress.Country,
		order.PaymentMethod, order.PromoCode,
		order.SubtotalCents, order.DiscountCents, order.ShippingCents, order.TaxCents,
		order.TotalCents, order.PaymentStatus, order.OrderStatus).Scan(&order.CreatedAt); err != nil {
		return Order{}, err
	}

	for _, it := range cart.Items {
		p := products[it.ProductID]
		item := OrderItem{
			ProductID:      p.ID,
			Name:           p.Name,
			Category:       p.Category,
			Manufacturer:   p.Manufacturer,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			ExpiryDate:     p.ExpiryDate,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, category, manufacturer,
				unit_price_cents, quantity, expiry_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			order.ID, item.ProductID, item.Name, item.Category, item.Manufacturer,
			item.UnitPriceCents, item.Quantity, item.ExpiryDate); err != nil {
			return Order{}, err
		}
		order.Items = append(order.Items, item)

		// Same guarded decrement as every other stock writer. A failure
		// here rolls back the order insert above.
		if _, err := c.Store.ApplyProductDelta(ctx, tx, it.ProductID, -it.Quantity); err != nil {
			return Order{}, err
		}
	}

	if err := deleteCart(ctx, tx, cart.ID); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}

	c.emitOrderCreated(order)
	return order, nil
}

func (c *CheckoutService) emitOrderCreated(o Order) {
	if c.Producer == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			ItemCount:   len(o.Items),
			TotalCents:  o.TotalCents,
		}),
	}
	c.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// GetOrder returns the stored snapshot; line items stay frozen after
// creation.
func (s *Store) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var o Order
	var userID *string
	err := s.Pool.QueryRow(ctx, `
		SELECT id, order_number, user_id, first_name, last_name, email, phone, address,
			city, state, zip_code, country, payment_method, COALESCE(promo_code, ''),
			subtotal_cents, discount_cents, shipping_cents, tax_cents, total_cents,
			payment_status, order_status, created_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.OrderNumber, &userID,
			&o.ShippingAddress.FirstName, &o.ShippingAddress.LastName, &o.ShippingAddress.Email,
			&o.ShippingAddress.Phone, &o.ShippingAddress.Address, &o.ShippingAddress.City,
			&o.ShippingAddress.State, &o.ShippingAddress.ZipCode, &o.ShippingAddress.Country,
			&o.PaymentMethod, &o.PromoCode,
			&o.SubtotalCents, &o.DiscountCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents,
			&o.PaymentStatus, &o.OrderStatus, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if userID != nil {
		o.UserID = *userID
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT product_id, name, category, manufacturer, unit_price_cents, quantity, expiry_date
		FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Category, &it.Manufacturer,
			&it.UnitPriceCents, &it.Quantity, &it.ExpiryDate); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}
