package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// BookingRequestRepo provides access to the booking_requests table.
// Status transitions are expressed as conditional updates so that two
// racing callers cannot both observe PENDING and both act; the caller
// learns from the affected-row count whether its transition won.
type BookingRequestRepo struct{ DB *sql.DB }

func NewBookingRequestRepo(db *sql.DB) *BookingRequestRepo { return &BookingRequestRepo{DB: db} }

const requestColumns = `id, tenant_id, landlord_id, property_id, move_in, move_out,
	base_price_cents, other_fees_cents, net_price_cents, service_charge_cents,
	payment_due, status, payment_status, payment_ref, created_at, updated_at`

// Create inserts a new PENDING request and populates its ID.
func (r *BookingRequestRepo) Create(ctx context.Context, req *model.BookingRequest) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO booking_requests
		 (tenant_id, landlord_id, property_id, move_in, move_out,
		  base_price_cents, other_fees_cents, net_price_cents, service_charge_cents,
		  status, payment_status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		req.TenantID, req.LandlordID, req.PropertyID,
		req.MoveIn.UTC(), req.MoveOut.UTC(),
		req.BasePriceCents, req.OtherFeesCents, req.NetPriceCents, req.ServiceChargeCents,
		model.RequestPending, model.PaymentPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.Status = model.RequestPending
	req.PaymentStatus = model.PaymentPending
	return nil
}

// GetByID returns a request or sql.ErrNoRows.
func (r *BookingRequestRepo) GetByID(ctx context.Context, id uint64) (*model.BookingRequest, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE id = ?`, id)
	return scanRequest(row.Scan)
}

// ListByTenant returns a tenant's requests, newest first.
func (r *BookingRequestRepo) ListByTenant(ctx context.Context, tenantID uint64) ([]*model.BookingRequest, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM booking_requests WHERE tenant_id = ? ORDER BY created_at DESC`, tenantID)
}

// ListByLandlord returns requests against a landlord's properties,
// newest first.
func (r *BookingRequestRepo) ListByLandlord(ctx context.Context, landlordID uint64) ([]*model.BookingRequest, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM booking_requests WHERE landlord_id = ? ORDER BY created_at DESC`, landlordID)
}

func (r *BookingRequestRepo) list(ctx context.Context, q string, arg any) ([]*model.BookingRequest, error) {
	rows, err := r.DB.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.BookingRequest
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ApproveIfPending atomically moves a PENDING request to APPROVED and
// stamps its payment deadline. Returns false when the request had
// already left PENDING.
func (r *BookingRequestRepo) ApproveIfPending(ctx context.Context, id uint64, paymentDue time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE booking_requests SET status = ?, payment_due = ? WHERE id = ? AND status = ?`,
		model.RequestApproved, paymentDue.UTC(), id, model.RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeclineIfPending atomically moves a PENDING request to DECLINED.
func (r *BookingRequestRepo) DeclineIfPending(ctx context.Context, id uint64) (bool, error) {
	return r.transitionIfPending(ctx, id, model.RequestDeclined)
}

// ExpireIfPending atomically moves a PENDING request to EXPIRED. The
// expiration job relies on the zero-row case to make re-delivery a
// no-op.
func (r *BookingRequestRepo) ExpireIfPending(ctx context.Context, id uint64) (bool, error) {
	return r.transitionIfPending(ctx, id, model.RequestExpired)
}

func (r *BookingRequestRepo) transitionIfPending(ctx context.Context, id uint64, to string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE booking_requests SET status = ? WHERE id = ? AND status = ?`,
		to, id, model.RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Expire marks an APPROVED-but-unpaid request EXPIRED once its payment
// window has fully elapsed. Guarded on both status and payment status
// so a racing settlement cannot be clobbered and only the approved
// state can take this transition.
func (r *BookingRequestRepo) Expire(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE booking_requests SET status = ? WHERE id = ? AND status = ? AND payment_status = ?`,
		model.RequestExpired, id, model.RequestApproved, model.PaymentPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeclineOtherPending declines every other PENDING request for the
// same property and returns the requests that were declined so the
// caller can notify their tenants. Runs when one request wins the
// property.
func (r *BookingRequestRepo) DeclineOtherPending(ctx context.Context, propertyID, winnerID uint64) ([]*model.BookingRequest, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE property_id = ? AND status = ? AND id <> ?`,
		propertyID, model.RequestPending, winnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var declined []*model.BookingRequest
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		declined = append(declined, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(declined) == 0 {
		return declined, nil
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE booking_requests SET status = ? WHERE property_id = ? AND status = ? AND id <> ?`,
		model.RequestDeclined, propertyID, model.RequestPending, winnerID)
	if err != nil {
		return nil, err
	}
	for _, d := range declined {
		d.Status = model.RequestDeclined
	}
	return declined, nil
}

// DeletePending removes a request while it is still PENDING and owned
// by the given tenant. Resolved requests are never physically
// deleted.
func (r *BookingRequestRepo) DeletePending(ctx context.Context, id, tenantID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM booking_requests WHERE id = ? AND tenant_id = ? AND status = ?`,
		id, tenantID, model.RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// IDByPaymentRef returns the id of the request carrying the given
// gateway reference, or sql.ErrNoRows when the reference is unused.
// This lookup runs against committed state and is the settlement
// engine's idempotency guard.
func (r *BookingRequestRepo) IDByPaymentRef(ctx context.Context, ref string) (uint64, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT id FROM booking_requests WHERE payment_ref = ? LIMIT 1`, ref).Scan(&id)
	return id, err
}

// scanRequest maps one booking_requests row via the provided Scan
// func so the same code serves QueryRow and Rows.
func scanRequest(scan func(dest ...any) error) (*model.BookingRequest, error) {
	var req model.BookingRequest
	var due sql.NullTime
	var ref sql.NullString
	err := scan(&req.ID, &req.TenantID, &req.LandlordID, &req.PropertyID,
		&req.MoveIn, &req.MoveOut,
		&req.BasePriceCents, &req.OtherFeesCents, &req.NetPriceCents, &req.ServiceChargeCents,
		&due, &req.Status, &req.PaymentStatus, &ref, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		t := due.Time.UTC()
		req.PaymentDue = &t
	}
	if ref.Valid {
		s := ref.String
		req.PaymentRef = &s
	}
	return &req, nil
}
