package model

import "time"

// Withdrawal bounds in minor currency units. Requests outside the
// range are rejected before any balance mutation.
const (
	MinWithdrawCents int64 = 15_000
	MaxWithdrawCents int64 = 300_000
)

// Wallet holds a per-user running balance in the `wallets` table. It
// is created lazily on first access. The balance only increases via
// settlement credits and only decreases via guarded withdrawals; it
// must never go negative.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – owning user (unique).
//  BalanceCents  – current balance in minor units.
//  BankName      – payout bank name.
//  AccountNumber – payout account number.
//  AccountName   – payout account holder name.
//  HasSubmitted  – payout details present; required for withdrawals.
//  IsBlocked     – set by admins; blocks withdrawals.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Wallet struct {
	ID            uint64    // wallets.id
	UserID        uint64    // wallets.user_id
	BalanceCents  int64     // wallets.balance_cents
	BankName      string    // wallets.bank_name
	AccountNumber string    // wallets.account_number
	AccountName   string    // wallets.account_name
	HasSubmitted  bool      // wallets.has_submitted
	IsBlocked     bool      // wallets.is_blocked
	CreatedAt     time.Time // wallets.created_at
	UpdatedAt     time.Time // wallets.updated_at
}

// Transaction types and statuses recorded in the audit ledger.
const (
	TxPayment    = "PAYMENT"
	TxWithdrawal = "WITHDRAWAL"

	TxSuccess = "SUCCESS"
	TxFailed  = "FAILED"
)

// Transaction is an immutable audit record of a financial effect,
// written by the settlement engine and the withdrawal flow. Rows are
// only ever inserted.
type Transaction struct {
	ID               uint64    // transactions.id
	UserID           uint64    // transactions.user_id
	BookingRequestID *uint64   // transactions.booking_request_id (nullable)
	Type             string    // transactions.type (PAYMENT | WITHDRAWAL)
	Status           string    // transactions.status
	AmountCents      int64     // transactions.amount_cents
	Reference        string    // transactions.reference
	CreatedAt        time.Time // transactions.created_at
}
