package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/service"
)

// AdminHandler exposes the admin-only wallet block switch.
type AdminHandler struct {
	Wallets *service.WalletService
}

func NewAdminHandler(s *service.WalletService) *AdminHandler {
	return &AdminHandler{Wallets: s}
}

// BlockWallet freezes a user's withdrawals.
func (h *AdminHandler) BlockWallet(c echo.Context) error {
	return h.setBlocked(c, true)
}

// UnblockWallet lifts the freeze.
func (h *AdminHandler) UnblockWallet(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c echo.Context, blocked bool) error {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Wallets.SetBlocked(ctx, userID, blocked); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update wallet failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID, "is_blocked": blocked})
}
