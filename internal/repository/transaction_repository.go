package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// TransactionRepo writes the immutable financial audit ledger. Rows
// are insert-only; there are no update methods on purpose.
type TransactionRepo struct{ DB *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

// Create inserts an audit record and populates its ID.
func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	return r.create(ctx, r.DB.ExecContext, t)
}

// CreateTx is Create inside an existing transaction.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	return r.create(ctx, tx.ExecContext, t)
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (r *TransactionRepo) create(ctx context.Context, exec execFunc, t *model.Transaction) error {
	res, err := exec(ctx,
		`INSERT INTO transactions (user_id, booking_request_id, type, status, amount_cents, reference)
		 VALUES (?,?,?,?,?,?)`,
		t.UserID, t.BookingRequestID, t.Type, t.Status, t.AmountCents, t.Reference)
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

// ListByUser returns a user's transactions, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, booking_request_id, type, status, amount_cents, reference, created_at
		 FROM transactions WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		var reqID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &reqID, &t.Type, &t.Status,
			&t.AmountCents, &t.Reference, &t.CreatedAt); err != nil {
			return nil, err
		}
		if reqID.Valid {
			id := uint64(reqID.Int64)
			t.BookingRequestID = &id
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
