package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/service"
)

// PaymentHandler exposes the payment-link and verification endpoints
// in front of the settlement engine.
type PaymentHandler struct {
	Settlements *service.SettlementService
}

func NewPaymentHandler(s *service.SettlementService) *PaymentHandler {
	return &PaymentHandler{Settlements: s}
}

// CreateLink initializes a gateway charge for the tenant's approved
// request and returns the authorization URL.
func (h *PaymentHandler) CreateLink(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	url, err := h.Settlements.InitializePayment(ctx, currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"authorization_url": url})
}

// Verify is the payment callback: the gateway redirect (or a webhook
// retry) lands here with the booking request id and the charge
// reference. Settlement is idempotent, so replays answer 409 without
// side effects.
func (h *PaymentHandler) Verify(c echo.Context) error {
	reference := strings.TrimSpace(c.QueryParam("reference"))
	reqID, err := strconv.ParseUint(c.QueryParam("booking_request_id"), 10, 64)
	if err != nil || reqID == 0 || reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_request_id and reference required"})
	}

	// settlement talks to the gateway and the database; give it more
	// room than a plain read
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*dbTimeout)
	defer cancel()

	if err := h.Settlements.HandlePaymentSuccess(ctx, reqID, reference); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "settled", "booking_request_id": reqID})
}
