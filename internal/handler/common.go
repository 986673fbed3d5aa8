// Package handler contains the HTTP handlers for the rental
// marketplace API. Handlers bind and validate input, call into the
// service layer and translate typed service failures into status
// codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/service"
)

// dbTimeout bounds every database-touching request.
const dbTimeout = 5 * time.Second

// currentUserID extracts the authenticated user id stored by the JWT
// middleware. JWT numeric claims decode as float64; some issuers
// stringify them.
func currentUserID(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v)
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// pathID parses the :id route parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

// respondServiceError maps the service error taxonomy onto HTTP
// status codes. Unknown errors become 500 without leaking details.
func respondServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrNotApproved),
		errors.Is(err, service.ErrPropertyUnavailable),
		errors.Is(err, service.ErrDuplicateReference),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrBankDetailsMissing),
		errors.Is(err, service.ErrWalletBlocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrAmountOutOfRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrGatewayFailed),
		errors.Is(err, service.ErrAmountMismatch):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
