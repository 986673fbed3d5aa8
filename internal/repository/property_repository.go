package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// PropertyRepo provides access to the properties table and the
// property_requesters join table that tracks tenants with a pending
// booking request against a listing. All timestamps are stored in
// UTC.
type PropertyRepo struct{ DB *sql.DB }

func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{DB: db} }

const propertyColumns = `id, landlord_id, title, pricing_model, base_price_cents,
	other_fees_cents, is_available, booked_by, revenue_cents, created_at, updated_at`

// Create inserts a property and returns its ID. New listings start
// available with no occupant.
func (r *PropertyRepo) Create(ctx context.Context, p *model.Property) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO properties (landlord_id, title, pricing_model, base_price_cents, other_fees_cents, is_available)
		 VALUES (?,?,?,?,?,1)`,
		p.LandlordID, p.Title, p.PricingModel, p.BasePriceCents, p.OtherFeesCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = uint64(id)
	return p.ID, nil
}

// GetByID returns a property or sql.ErrNoRows.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (*model.Property, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	return scanProperty(row.Scan)
}

// ListAvailable returns all listings currently open for requests,
// newest first.
func (r *PropertyRepo) ListAvailable(ctx context.Context) ([]*model.Property, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE is_available = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Property
	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddRequester records a tenant as a pending requester for the
// property. Duplicate inserts are ignored so a retried create does
// not fail.
func (r *PropertyRepo) AddRequester(ctx context.Context, propertyID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO property_requesters (property_id, user_id) VALUES (?,?)`,
		propertyID, userID)
	return err
}

// RemoveRequester drops a tenant from the property's requester list.
func (r *PropertyRepo) RemoveRequester(ctx context.Context, propertyID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM property_requesters WHERE property_id = ? AND user_id = ?`,
		propertyID, userID)
	return err
}

// ClearRequesters empties the property's requester list. Called when
// a request is approved and the listing leaves the market.
func (r *PropertyRepo) ClearRequesters(ctx context.Context, propertyID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM property_requesters WHERE property_id = ?`, propertyID)
	return err
}

// Requesters returns the user IDs currently requesting the property.
func (r *PropertyRepo) Requesters(ctx context.Context, propertyID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id FROM property_requesters WHERE property_id = ?`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetAvailability flips the is_available flag. Used when a request is
// approved (off) and when an approved request expires unpaid (back
// on).
func (r *PropertyRepo) SetAvailability(ctx context.Context, propertyID uint64, available bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE properties SET is_available = ? WHERE id = ?`, available, propertyID)
	return err
}

// MarkBookedTx records the occupying tenant and closes the listing
// inside an existing transaction. Part of settlement.
func (r *PropertyRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, propertyID, tenantID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE properties SET booked_by = ?, is_available = 0 WHERE id = ?`,
		tenantID, propertyID)
	return err
}

// AddRevenueTx bumps the property's aggregate revenue inside an
// existing transaction using an atomic increment.
func (r *PropertyRepo) AddRevenueTx(ctx context.Context, tx *sql.Tx, propertyID uint64, amountCents int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE properties SET revenue_cents = revenue_cents + ? WHERE id = ?`,
		amountCents, propertyID)
	return err
}

// scanProperty maps one properties row via the provided Scan func so
// the same code serves QueryRow and Rows.
func scanProperty(scan func(dest ...any) error) (*model.Property, error) {
	var p model.Property
	var bookedBy sql.NullInt64
	err := scan(&p.ID, &p.LandlordID, &p.Title, &p.PricingModel, &p.BasePriceCents,
		&p.OtherFeesCents, &p.IsAvailable, &bookedBy, &p.RevenueCents, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if bookedBy.Valid {
		id := uint64(bookedBy.Int64)
		p.BookedBy = &id
	}
	return &p, nil
}
