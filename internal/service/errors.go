// Package service implements the booking lifecycle, payment
// settlement and wallet operations on top of the repositories. Each
// service accepts narrow store interfaces so tests can substitute
// in-memory fakes.
package service

import "errors"

// Typed failures surfaced to the HTTP layer. None of them is
// retriable; the handler maps each to a status code.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = errors.New("action not allowed for this user")
	ErrNotPending          = errors.New("booking request already resolved")
	ErrPropertyUnavailable = errors.New("property is not available")
	ErrNotApproved         = errors.New("booking request is not approved")
	ErrDuplicateReference  = errors.New("payment reference already used")
	ErrGatewayFailed       = errors.New("payment gateway did not report success")
	ErrAmountMismatch      = errors.New("paid amount does not match net price")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAmountOutOfRange    = errors.New("amount outside withdrawal bounds")
	ErrInsufficientFunds   = errors.New("insufficient wallet balance")
	ErrBankDetailsMissing  = errors.New("payout bank details not submitted")
	ErrWalletBlocked       = errors.New("wallet is blocked")
)
