package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-marketplace/internal/model"
)

// WalletStore is the wallet persistence the wallet service needs.
// Satisfied by *repository.WalletRepo.
type WalletStore interface {
	GetOrCreate(ctx context.Context, userID uint64) (*model.Wallet, error)
	// Debit subtracts atomically and reports whether every guard held.
	Debit(ctx context.Context, userID uint64, amountCents int64) (bool, error)
	SubmitBankDetails(ctx context.Context, userID uint64, bankName, accountNumber, accountName string) error
	SetBlocked(ctx context.Context, userID uint64, blocked bool) error
}

// TransactionStore records the audit ledger.
type TransactionStore interface {
	Create(ctx context.Context, t *model.Transaction) error
	ListByUser(ctx context.Context, userID uint64) ([]*model.Transaction, error)
}

// WalletService exposes the wallet ledger: balance reads, payout
// detail submission, withdrawals and the admin block switch. Balances
// only ever increase through the settlement engine; this service owns
// the debit side.
type WalletService struct {
	Wallets      WalletStore
	Transactions TransactionStore
	Log          *logrus.Logger
}

// Get returns the user's wallet, creating it on first access.
func (s *WalletService) Get(ctx context.Context, userID uint64) (*model.Wallet, error) {
	return s.Wallets.GetOrCreate(ctx, userID)
}

// SubmitBankDetails stores payout details, unlocking withdrawals.
func (s *WalletService) SubmitBankDetails(ctx context.Context, userID uint64, bankName, accountNumber, accountName string) error {
	return s.Wallets.SubmitBankDetails(ctx, userID, bankName, accountNumber, accountName)
}

// Withdraw debits the wallet and records the withdrawal in the ledger.
// The preflight read produces precise errors for the caller; the
// conditional debit then re-checks every guard atomically, so a
// concurrent withdrawal can never push the balance negative. The
// external payout transfer happens downstream of the recorded
// transaction.
func (s *WalletService) Withdraw(ctx context.Context, userID uint64, amountCents int64) (*model.Transaction, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if amountCents < model.MinWithdrawCents || amountCents > model.MaxWithdrawCents {
		return nil, ErrAmountOutOfRange
	}

	w, err := s.Wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case !w.HasSubmitted:
		return nil, ErrBankDetailsMissing
	case w.IsBlocked:
		return nil, ErrWalletBlocked
	case w.BalanceCents < amountCents:
		return nil, ErrInsufficientFunds
	}

	ok, err := s.Wallets.Debit(ctx, userID, amountCents)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientFunds
	}

	t := &model.Transaction{
		UserID:      userID,
		Type:        model.TxWithdrawal,
		Status:      model.TxSuccess,
		AmountCents: amountCents,
		Reference:   uuid.NewString(),
	}
	if err := s.Transactions.Create(ctx, t); err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"amount_cents": amountCents,
		"reference":    t.Reference,
	}).Info("withdrawal recorded")
	return t, nil
}

// History returns the user's ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, userID uint64) ([]*model.Transaction, error) {
	return s.Transactions.ListByUser(ctx, userID)
}

// SetBlocked is the admin switch freezing or unfreezing withdrawals.
func (s *WalletService) SetBlocked(ctx context.Context, userID uint64, blocked bool) error {
	return s.Wallets.SetBlocked(ctx, userID, blocked)
}
