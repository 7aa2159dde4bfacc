package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Cart mutations re-read current product stock on every call, so a cart
// can never represent more than what was available at write time. This is
// a best-effort check; checkout re-validates under row locks.

func (s *Store) GetCart(ctx context.Context, key CartKey) (Cart, error) {
	if err := key.Validate(); err != nil {
		return Cart{}, err
	}
	return s.loadCart(ctx, s.Pool, key)
}

func (s *Store) AddToCart(ctx context.Context, key CartKey, productID string, qty int) (Cart, error) {
	return s.mutateCart(ctx, key, productID, qty, false)
}

// UpdateCartItem sets an existing line item's quantity outright.
func (s *Store) UpdateCartItem(ctx context.Context, key CartKey, productID string, qty int) (Cart, error) {
	return s.mutateCart(ctx, key, productID, qty, true)
}

func (s *Store) RemoveFromCart(ctx context.Context, key CartKey, productID string) (Cart, error) {
	if err := key.Validate(); err != nil {
		return Cart{}, err
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cartID, err := s.findCartID(ctx, tx, key)
	if err != nil {
		return Cart{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2`, cartID, productID); err != nil {
		return Cart{}, err
	}
	if err := s.storeCartTotals(ctx, tx, cartID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return s.loadCart(ctx, s.Pool, key)
}

func (s *Store) ClearCart(ctx context.Context, key CartKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cartID, err := s.findCartID(ctx, tx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := deleteCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) mutateCart(ctx context.Context, key CartKey, productID string, qty int, replace bool) (Cart, error) {
	if err := key.Validate(); err != nil {
		return Cart{}, err
	}
	if qty < 1 {
		return Cart{}, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, productID))
	if err != nil {
		return Cart{}, err
	}
	if !p.Verified || !p.ExpiryDate.After(time.Now()) {
		return Cart{}, &ValidationError{Field: "product_id", Reason: "product not available"}
	}

	cartID, err := s.findCartID(ctx, tx, key)
	if errors.Is(err, ErrNotFound) {
		cartID = uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO carts (id, user_id, session_id)
			VALUES ($1, NULLIF($2,''), NULLIF($3,''))`,
			cartID, key.UserID, key.SessionID); err != nil {
			return Cart{}, err
		}
	} else if err != nil {
		return Cart{}, err
	}

	newQty := qty
	if !replace {
		var current int
		err := tx.QueryRow(ctx, `SELECT quantity FROM cart_items WHERE cart_id=$1 AND product_id=$2`,
			cartID, productID).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, err
		}
		newQty += current
	}
	if newQty > p.Stock {
		return Cart{}, &InsufficientStockError{
			RecordID: productID, Name: p.Name, Requested: newQty, Available: p.Stock,
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price_cents)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity=$3, unit_price_cents=$4`,
		cartID, productID, newQty, p.PriceCents); err != nil {
		return Cart{}, err
	}
	if err := s.storeCartTotals(ctx, tx, cartID); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return s.loadCart(ctx, s.Pool, key)
}

func (s *Store) findCartID(ctx context.Context, db DB, key CartKey) (string, error) {
	var id string
	err := db.QueryRow(ctx, `
		SELECT id FROM carts
		WHERE (user_id = NULLIF($1,'') AND $1 <> '')
		   OR (session_id = NULLIF($2,'') AND $2 <> '')`,
		key.UserID, key.SessionID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

// storeCartTotals recomputes totals from line items inside the same tx;
// caller-supplied totals are never trusted.
func (s *Store) storeCartTotals(ctx context.Context, db DB, cartID string) error {
	_, err := db.Exec(ctx, `
		UPDATE carts SET
			total_cents = COALESCE((SELECT SUM(quantity * unit_price_cents) FROM cart_items WHERE cart_id=$1), 0),
			total_items = COALESCE((SELECT SUM(quantity) FROM cart_items WHERE cart_id=$1), 0),
			updated_at = now()
		WHERE id=$1`, cartID)
	return err
}

func (s *Store) loadCart(ctx context.Context, db DB, key CartKey) (Cart, error) {
	var c Cart
	var userID, sessionID *string
	err := db.QueryRow(ctx, `
		SELECT id, user_id, session_id, total_cents, total_items, created_at, updated_at
		FROM carts
		WHERE (user_id = NULLIF($1,'') AND $1 <> '')
		   OR (session_id = NULLIF($2,'') AND $2 <> '')`,
		key.UserID, key.SessionID).
		Scan(&c.ID, &userID, &sessionID, &c.TotalCents, &c.TotalItems, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{Key: key}, nil
	}
	if err != nil {
		return Cart{}, err
	}
	if userID != nil {
		c.Key.UserID = *userID
	}
	if sessionID != nil {
		c.Key.SessionID = *sessionID
	}

	rows, err := db.Query(ctx, `
		SELECT product_id, quantity, unit_price_cents, added_at
		FROM cart_items WHERE cart_id=$1 ORDER BY added_at`, c.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPriceCents, &it.AddedAt); err != nil {
			return Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func deleteCart(ctx context.Context, db DB, cartID string) error {
	if _, err := db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return err
	}
	_, err := db.Exec(ctx, `DELETE FROM carts WHERE id=$1`, cartID)
	return err
}
