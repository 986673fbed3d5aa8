package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// WalletRepo provides access to the wallets table. Wallets are
// created lazily on first access. Balance mutations always go through
// atomic increments or guarded conditional updates; the balance is
// never written from a value read earlier in the request.
type WalletRepo struct{ DB *sql.DB }

func NewWalletRepo(db *sql.DB) *WalletRepo { return &WalletRepo{DB: db} }

const walletColumns = `id, user_id, balance_cents, bank_name, account_number, account_name,
	has_submitted, is_blocked, created_at, updated_at`

// GetOrCreate returns the user's wallet, creating an empty one when
// none exists yet.
func (r *WalletRepo) GetOrCreate(ctx context.Context, userID uint64) (*model.Wallet, error) {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO wallets (user_id) VALUES (?)`, userID); err != nil {
		return nil, err
	}
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = ?`, userID)
	var w model.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.BalanceCents, &w.BankName, &w.AccountNumber,
		&w.AccountName, &w.HasSubmitted, &w.IsBlocked, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreditTx adds amount to the user's balance inside an existing
// transaction, creating the wallet row first when necessary. The
// increment happens in SQL so concurrent settlements touching the
// same landlord cannot lose updates.
func (r *WalletRepo) CreditTx(ctx context.Context, tx *sql.Tx, userID uint64, amountCents int64) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO wallets (user_id) VALUES (?)`, userID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + ? WHERE user_id = ?`,
		amountCents, userID)
	return err
}

// Debit subtracts amount from the user's balance when every guard
// holds: sufficient funds, payout details submitted, wallet not
// blocked. Returns false without mutation when any guard fails, so a
// concurrent withdrawal can never push the balance negative.
func (r *WalletRepo) Debit(ctx context.Context, userID uint64, amountCents int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents - ?
		 WHERE user_id = ? AND balance_cents >= ? AND has_submitted = 1 AND is_blocked = 0`,
		amountCents, userID, amountCents)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SubmitBankDetails stores payout details and marks the wallet as
// ready for withdrawals.
func (r *WalletRepo) SubmitBankDetails(ctx context.Context, userID uint64, bankName, accountNumber, accountName string) error {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO wallets (user_id) VALUES (?)`, userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE wallets SET bank_name = ?, account_number = ?, account_name = ?, has_submitted = 1
		 WHERE user_id = ?`,
		bankName, accountNumber, accountName, userID)
	return err
}

// SetBlocked flips the admin block flag.
func (r *WalletRepo) SetBlocked(ctx context.Context, userID uint64, blocked bool) error {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO wallets (user_id) VALUES (?)`, userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE wallets SET is_blocked = ? WHERE user_id = ?`, blocked, userID)
	return err
}
