package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is satisfied by both *pgxpool.Pool and pgx.Tx, so checkout and the
// recall sweep run the same guarded writes inside their own transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the single authoritative read/write path for lot and product
// quantities and statuses. No other component writes those fields.
type Store struct{ Pool *pgxpool.Pool }

// MinExpiryLead is the domain safety rule: donated medicine must have at
// least this long before expiry at submission time.
const MinExpiryLead = 6 * 30 * 24 * time.Hour

const lotColumns = `id, medicine_name, brand, dosage, category, condition, quantity,
	expiry_date, donor_name, donor_email, donor_id, notes, status, reserved,
	COALESCE(reserved_by, ''), COALESCE(reviewer_id, ''), COALESCE(review_notes, ''),
	reviewed_at, version, created_at, updated_at`

func scanLot(row pgx.Row) (DonationLot, error) {
	var l DonationLot
	err := row.Scan(&l.ID, &l.MedicineName, &l.Brand, &l.Dosage, &l.Category, &l.Condition,
		&l.Quantity, &l.ExpiryDate, &l.DonorName, &l.DonorEmail, &l.DonorID, &l.Notes,
		&l.Status, &l.Reserved, &l.ReservedBy, &l.ReviewerID, &l.ReviewNotes,
		&l.ReviewedAt, &l.Version, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DonationLot{}, ErrNotFound
	}
	return l, err
}

// NewLot is the typed create command for a donor submission.
type NewLot struct {
	MedicineName string
	Brand        string
	Dosage       string
	Category     string
	Condition    string
	Quantity     int
	ExpiryDate   time.Time
	DonorName    string
	DonorEmail   string
	DonorID      string
	Notes        string
}

func (s *Store) CreateLot(ctx context.Context, in NewLot) (DonationLot, error) {
	if in.MedicineName == "" {
		return DonationLot{}, &ValidationError{Field: "medicine_name", Reason: "required"}
	}
	if in.Quantity < 1 {
		return DonationLot{}, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	switch in.Condition {
	case "unopened", "opened", "partial":
	default:
		return DonationLot{}, &ValidationError{Field: "condition", Reason: "must be unopened, opened or partial"}
	}
	if in.ExpiryDate.Before(time.Now().Add(MinExpiryLead)) {
		return DonationLot{}, &ValidationError{Field: "expiry_date", Reason: "must be more than 6 months away"}
	}

	id := uuid.NewString()
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO lots (id, medicine_name, brand, dosage, category, condition, quantity,
			expiry_date, donor_name, donor_email, donor_id, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,'pending')
		RETURNING `+lotColumns,
		id, in.MedicineName, in.Brand, in.Dosage, in.Category, in.Condition, in.Quantity,
		in.ExpiryDate, in.DonorName, in.DonorEmail, in.DonorID, in.Notes)
	return scanLot(row)
}

func (s *Store) GetLot(ctx context.Context, id string) (DonationLot, error) {
	return scanLot(s.Pool.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id=$1`, id))
}

// LotFilter narrows listing; zero values mean "any". Purchase-facing
// queries always exclude drained and expired lots.
type LotFilter struct {
	Status   Status
	Category string
	Page     int
	Limit    int
}

func (s *Store) ListAvailableLots(ctx context.Context, f LotFilter) ([]DonationLot, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	where := `quantity > 0 AND expiry_date > now()`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status=$%d`, len(args))
	} else {
		where += ` AND status IN ('pending','verified')`
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(` AND category=$%d`, len(args))
	}

	var total int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM lots WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM lots WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		lotColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []DonationLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// ApplyLotDelta atomically checks the lot's current quantity and status,
// applies the delta, and advances verified lots to distributed when the
// quantity reaches 0. The write is guarded by the stored version, so a
// lost update surfaces as ErrConflict instead of a silent overwrite.
func (s *Store) ApplyLotDelta(ctx context.Context, db DB, lotID string, delta int, expected Status) (DonationLot, error) {
	lot, err := scanLot(db.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id=$1`, lotID))
	if err != nil {
		return DonationLot{}, err
	}
	if lot.Status != expected {
		return DonationLot{}, ErrConflict
	}
	newQty := lot.Quantity + delta
	if newQty < 0 {
		return DonationLot{}, &InsufficientStockError{
			RecordID: lotID, Name: lot.MedicineName, Requested: -delta, Available: lot.Quantity,
		}
	}
	newStatus := lot.Status
	if newQty == 0 && lot.Status == StatusVerified {
		newStatus = StatusDistributed
	}

	ct, err := db.Exec(ctx, `
		UPDATE lots SET quantity=$1, status=$2, version=version+1, updated_at=now()
		WHERE id=$3 AND version=$4 AND status=$5 AND quantity=$6`,
		newQty, newStatus, lotID, lot.Version, lot.Status, lot.Quantity)
	if err != nil {
		return DonationLot{}, err
	}
	if ct.RowsAffected() != 1 {
		return DonationLot{}, ErrConflict
	}
	lot.Quantity = newQty
	lot.Status = newStatus
	lot.Version++
	return lot, nil
}

// MarkRecalled flips a lot to recalled through the same version guard the
// reservation engine uses, so a sweep racing an in-flight reserve loses
// cleanly with ErrConflict.
func (s *Store) MarkRecalled(ctx context.Context, lotID, reason string) (DonationLot, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return DonationLot{}, err
	}
	if !CanTransition(lot.Status, StatusRecalled) {
		return DonationLot{}, &InvalidTransitionError{From: lot.Status, To: StatusRecalled}
	}
	// A distributed lot with nothing left has already reached patients;
	// there is no stock to pull back, only an advisory to log. The check
	// lives here, on the fresh read, so a reserve draining the lot between
	// the caller's read and ours cannot slip a recall through on retry.
	if lot.Status == StatusDistributed && lot.Quantity == 0 {
		return DonationLot{}, &InvalidTransitionError{From: lot.Status, To: StatusRecalled}
	}

	ct, err := s.Pool.Exec(ctx, `
		UPDATE lots SET status='recalled', review_notes=$1, version=version+1, updated_at=now()
		WHERE id=$2 AND version=$3`,
		reason, lotID, lot.Version)
	if err != nil {
		return DonationLot{}, err
	}
	if ct.RowsAffected() != 1 {
		return DonationLot{}, ErrConflict
	}
	lot.Status = StatusRecalled
	lot.ReviewNotes = reason
	lot.Version++
	return lot, nil
}

// FindLotsByMedicine returns active lots whose medicine name matches,
// case-insensitively. Used by the recall sweep.
func (s *Store) FindLotsByMedicine(ctx context.Context, medicineName string) ([]DonationLot, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+lotColumns+` FROM lots
		WHERE lower(medicine_name) = lower($1)
		  AND status IN ('pending','verified','distributed')`, medicineName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DonationLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// --- products ---

const productColumns = `id, name, category, manufacturer, price_cents, stock, verified,
	expiry_date, version, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Manufacturer, &p.PriceCents, &p.Stock,
		&p.Verified, &p.ExpiryDate, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

type NewProduct struct {
	Name         string
	Category     string
	Manufacturer string
	PriceCents   int
	Stock        int
	Verified     bool
	ExpiryDate   time.Time
}

func (s *Store) CreateProduct(ctx context.Context, in NewProduct) (Product, error) {
	if in.Name == "" {
		return Product{}, &ValidationError{Field: "name", Reason: "required"}
	}
	if in.PriceCents < 0 {
		return Product{}, &ValidationError{Field: "price_cents", Reason: "must be non-negative"}
	}
	if in.Stock < 0 {
		return Product{}, &ValidationError{Field: "stock", Reason: "must be non-negative"}
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO products (id, name, category, manufacturer, price_cents, stock, verified, expiry_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+productColumns,
		uuid.NewString(), in.Name, in.Category, in.Manufacturer, in.PriceCents, in.Stock,
		in.Verified, in.ExpiryDate)
	return scanProduct(row)
}

func (s *Store) GetProduct(ctx context.Context, id string) (Product, error) {
	return scanProduct(s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

// ListAvailableProducts returns purchasable products only: verified,
// unexpired, in stock.
func (s *Store) ListAvailableProducts(ctx context.Context, category string) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products
		WHERE verified AND stock > 0 AND expiry_date > now()`
	args := []any{}
	if category != "" {
		q += ` AND category=$1`
		args = append(args, category)
	}
	rows, err := s.Pool.Query(ctx, q+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ApplyProductDelta is the product counterpart of ApplyLotDelta; stock is
// never written outside this guard.
func (s *Store) ApplyProductDelta(ctx context.Context, db DB, productID string, delta int) (Product, error) {
	p, err := scanProduct(db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, productID))
	if err != nil {
		return Product{}, err
	}
	newStock := p.Stock + delta
	if newStock < 0 {
		return Product{}, &InsufficientStockError{
			RecordID: productID, Name: p.Name, Requested: -delta, Available: p.Stock,
		}
	}
	ct, err := db.Exec(ctx, `
		UPDATE products SET stock=$1, version=version+1, updated_at=now()
		WHERE id=$2 AND version=$3 AND stock=$4`,
		newStock, productID, p.Version, p.Stock)
	if err != nil {
		return Product{}, err
	}
	if ct.RowsAffected() != 1 {
		return Product{}, ErrConflict
	}
	p.Stock = newStock
	p.Version++
	return p, nil
}
