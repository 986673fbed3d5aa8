package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// SettlementRepo applies the full settlement of a paid booking request
// as a single database transaction: the payment-status flip, the
// landlord's wallet credit, the booking and occupancy rows, property
// bookkeeping, the audit record and the tenant/landlord conversation
// all commit together or not at all.
type SettlementRepo struct {
	DB            *sql.DB
	Requests      *BookingRequestRepo
	Wallets       *WalletRepo
	Bookings      *BookingRepo
	Properties    *PropertyRepo
	Transactions  *TransactionRepo
	Conversations *ConversationRepo
	Users         *UserRepo
}

func NewSettlementRepo(db *sql.DB) *SettlementRepo {
	return &SettlementRepo{
		DB:            db,
		Requests:      NewBookingRequestRepo(db),
		Wallets:       NewWalletRepo(db),
		Bookings:      NewBookingRepo(db),
		Properties:    NewPropertyRepo(db),
		Transactions:  NewTransactionRepo(db),
		Conversations: NewConversationRepo(db),
		Users:         NewUserRepo(db),
	}
}

// Apply settles the request under the given gateway reference,
// crediting creditCents to the landlord. The opening conditional
// update claims the request: it only matches while the request is
// still APPROVED with payment_status PENDING and no reference
// recorded, so a concurrent or repeated settlement, or a late
// callback for a request the reminder already expired, loses the
// race and gets ErrConflict with no side effects.
func (r *SettlementRepo) Apply(ctx context.Context, req *model.BookingRequest, reference string, creditCents int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE booking_requests SET payment_status = ?, payment_ref = ?
		 WHERE id = ? AND status = ? AND payment_status = ? AND payment_ref IS NULL`,
		model.PaymentSuccess, reference, req.ID, model.RequestApproved, model.PaymentPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}

	if err := r.Wallets.CreditTx(ctx, tx, req.LandlordID, creditCents); err != nil {
		return err
	}

	booking := &model.Booking{
		BookingRequestID:   req.ID,
		TenantID:           req.TenantID,
		LandlordID:         req.LandlordID,
		PropertyID:         req.PropertyID,
		MoveIn:             req.MoveIn,
		MoveOut:            req.MoveOut,
		BasePriceCents:     req.BasePriceCents,
		NetPriceCents:      req.NetPriceCents,
		ServiceChargeCents: req.ServiceChargeCents,
	}
	if err := r.Bookings.CreateTx(ctx, tx, booking); err != nil {
		return err
	}
	if err := r.Bookings.CreateTenantTx(ctx, tx, &model.Tenant{
		UserID:     req.TenantID,
		PropertyID: req.PropertyID,
		BookingID:  booking.ID,
		MoveIn:     req.MoveIn,
		MoveOut:    req.MoveOut,
	}); err != nil {
		return err
	}

	if err := r.Properties.MarkBookedTx(ctx, tx, req.PropertyID, req.TenantID); err != nil {
		return err
	}
	if err := r.Properties.AddRevenueTx(ctx, tx, req.PropertyID, req.NetPriceCents); err != nil {
		return err
	}

	reqID := req.ID
	if err := r.Transactions.CreateTx(ctx, tx, &model.Transaction{
		UserID:           req.TenantID,
		BookingRequestID: &reqID,
		Type:             model.TxPayment,
		Status:           model.TxSuccess,
		AmountCents:      req.NetPriceCents,
		Reference:        reference,
	}); err != nil {
		return err
	}

	if _, err := r.Conversations.GetOrCreateTx(ctx, tx, req.TenantID, req.LandlordID); err != nil {
		return err
	}
	if err := r.Users.AddEarningsTx(ctx, tx, req.LandlordID, creditCents); err != nil {
		return err
	}

	return tx.Commit()
}
