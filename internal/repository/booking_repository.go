package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// BookingRepo provides access to the bookings and tenants tables.
// Rows are created exactly once by the settlement engine and are
// never updated afterwards.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// CreateTx inserts a booking inside an existing transaction and
// populates its ID. Financial fields arrive already copied from the
// booking request.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings
		 (booking_request_id, tenant_id, landlord_id, property_id, move_in, move_out,
		  base_price_cents, net_price_cents, service_charge_cents)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		b.BookingRequestID, b.TenantID, b.LandlordID, b.PropertyID,
		b.MoveIn.UTC(), b.MoveOut.UTC(),
		b.BasePriceCents, b.NetPriceCents, b.ServiceChargeCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// CreateTenantTx inserts the occupancy record for a booking inside an
// existing transaction.
func (r *BookingRepo) CreateTenantTx(ctx context.Context, tx *sql.Tx, t *model.Tenant) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tenants (user_id, property_id, booking_id, move_in, move_out)
		 VALUES (?,?,?,?,?)`,
		t.UserID, t.PropertyID, t.BookingID, t.MoveIn.UTC(), t.MoveOut.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListByLandlord returns a landlord's settled bookings, newest first.
func (r *BookingRepo) ListByLandlord(ctx context.Context, landlordID uint64) ([]*model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, booking_request_id, tenant_id, landlord_id, property_id, move_in, move_out,
		        base_price_cents, net_price_cents, service_charge_cents, created_at
		 FROM bookings WHERE landlord_id = ? ORDER BY created_at DESC`, landlordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.BookingRequestID, &b.TenantID, &b.LandlordID, &b.PropertyID,
			&b.MoveIn, &b.MoveOut, &b.BasePriceCents, &b.NetPriceCents, &b.ServiceChargeCents,
			&b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
