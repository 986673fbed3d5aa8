package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/service"
)

// WalletHandler exposes the wallet endpoints: balance, payout details,
// withdrawals and the transaction history.
type WalletHandler struct {
	Wallets *service.WalletService
}

func NewWalletHandler(s *service.WalletService) *WalletHandler {
	return &WalletHandler{Wallets: s}
}

type walletResp struct {
	BalanceCents int64  `json:"balance_cents"`
	BankName     string `json:"bank_name,omitempty"`
	HasSubmitted bool   `json:"has_submitted"`
	IsBlocked    bool   `json:"is_blocked"`
}

type bankDetailsReq struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type withdrawReq struct {
	AmountCents int64 `json:"amount_cents"`
}

type transactionResp struct {
	ID               uint64    `json:"id"`
	BookingRequestID *uint64   `json:"booking_request_id,omitempty"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	AmountCents      int64     `json:"amount_cents"`
	Reference        string    `json:"reference"`
	CreatedAt        time.Time `json:"created_at"`
}

// Get returns the authenticated user's wallet.
func (h *WalletHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	w, err := h.Wallets.Get(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load wallet failed"})
	}
	return c.JSON(http.StatusOK, walletResp{
		BalanceCents: w.BalanceCents,
		BankName:     w.BankName,
		HasSubmitted: w.HasSubmitted,
		IsBlocked:    w.IsBlocked,
	})
}

// SubmitBankDetails stores payout details, unlocking withdrawals.
func (h *WalletHandler) SubmitBankDetails(c echo.Context) error {
	var req bankDetailsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.BankName = strings.TrimSpace(req.BankName)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.AccountName = strings.TrimSpace(req.AccountName)
	if req.BankName == "" || req.AccountNumber == "" || req.AccountName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bank_name/account_number/account_name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Wallets.SubmitBankDetails(ctx, currentUserID(c), req.BankName, req.AccountNumber, req.AccountName); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save bank details failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Withdraw debits the wallet within the configured bounds and records
// the transaction.
func (h *WalletHandler) Withdraw(c echo.Context) error {
	var req withdrawReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	t, err := h.Wallets.Withdraw(ctx, currentUserID(c), req.AmountCents)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toTransactionResp(t))
}

// History returns the user's ledger entries.
func (h *WalletHandler) History(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	records, err := h.Wallets.History(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list transactions failed"})
	}
	out := make([]transactionResp, 0, len(records))
	for _, t := range records {
		out = append(out, toTransactionResp(t))
	}
	return c.JSON(http.StatusOK, out)
}

func toTransactionResp(t *model.Transaction) transactionResp {
	return transactionResp{
		ID:               t.ID,
		BookingRequestID: t.BookingRequestID,
		Type:             t.Type,
		Status:           t.Status,
		AmountCents:      t.AmountCents,
		Reference:        t.Reference,
		CreatedAt:        t.CreatedAt,
	}
}
