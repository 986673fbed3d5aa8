package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/service"
)

// BookingRequestHandler exposes the booking-request state machine over
// HTTP: create, approve, decline, delete and the two list views.
type BookingRequestHandler struct {
	Bookings *service.BookingService
}

func NewBookingRequestHandler(s *service.BookingService) *BookingRequestHandler {
	return &BookingRequestHandler{Bookings: s}
}

type createRequestReq struct {
	PropertyID uint64 `json:"property_id"`
	MoveIn     string `json:"move_in"` // YYYY-MM-DD
}

type requestResp struct {
	ID                 uint64     `json:"id"`
	TenantID           uint64     `json:"tenant_id"`
	LandlordID         uint64     `json:"landlord_id"`
	PropertyID         uint64     `json:"property_id"`
	MoveIn             time.Time  `json:"move_in"`
	MoveOut            time.Time  `json:"move_out"`
	BasePriceCents     int64      `json:"base_price_cents"`
	OtherFeesCents     int64      `json:"other_fees_cents"`
	NetPriceCents      int64      `json:"net_price_cents"`
	ServiceChargeCents int64      `json:"service_charge_cents"`
	PaymentDue         *time.Time `json:"payment_due,omitempty"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
}

func toRequestResp(r *model.BookingRequest) requestResp {
	return requestResp{
		ID:                 r.ID,
		TenantID:           r.TenantID,
		LandlordID:         r.LandlordID,
		PropertyID:         r.PropertyID,
		MoveIn:             r.MoveIn,
		MoveOut:            r.MoveOut,
		BasePriceCents:     r.BasePriceCents,
		OtherFeesCents:     r.OtherFeesCents,
		NetPriceCents:      r.NetPriceCents,
		ServiceChargeCents: r.ServiceChargeCents,
		PaymentDue:         r.PaymentDue,
		Status:             r.Status,
		PaymentStatus:      r.PaymentStatus,
	}
}

// Create submits a booking request for a property.
func (h *BookingRequestHandler) Create(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PropertyID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "property_id required"})
	}
	moveIn, err := time.Parse("2006-01-02", req.MoveIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "move_in must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	created, err := h.Bookings.Create(ctx, currentUserID(c), req.PropertyID, moveIn)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestResp(created))
}

// Get returns one request to its tenant or landlord.
func (h *BookingRequestHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	req, err := h.Bookings.Get(ctx, currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResp(req))
}

// ListMine returns the tenant's own requests.
func (h *BookingRequestHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	reqs, err := h.Bookings.ListByTenant(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list requests failed"})
	}
	return c.JSON(http.StatusOK, toRequestList(reqs))
}

// ListIncoming returns requests against the landlord's listings.
func (h *BookingRequestHandler) ListIncoming(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	reqs, err := h.Bookings.ListByLandlord(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list requests failed"})
	}
	return c.JSON(http.StatusOK, toRequestList(reqs))
}

func toRequestList(reqs []*model.BookingRequest) []requestResp {
	out := make([]requestResp, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResp(r))
	}
	return out
}

type bookingResp struct {
	ID                 uint64    `json:"id"`
	BookingRequestID   uint64    `json:"booking_request_id"`
	TenantID           uint64    `json:"tenant_id"`
	PropertyID         uint64    `json:"property_id"`
	MoveIn             time.Time `json:"move_in"`
	MoveOut            time.Time `json:"move_out"`
	BasePriceCents     int64     `json:"base_price_cents"`
	NetPriceCents      int64     `json:"net_price_cents"`
	ServiceChargeCents int64     `json:"service_charge_cents"`
	CreatedAt          time.Time `json:"created_at"`
}

// ListConfirmed returns the landlord's settled bookings.
func (h *BookingRequestHandler) ListConfirmed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	bookings, err := h.Bookings.ConfirmedByLandlord(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingResp{
			ID:                 b.ID,
			BookingRequestID:   b.BookingRequestID,
			TenantID:           b.TenantID,
			PropertyID:         b.PropertyID,
			MoveIn:             b.MoveIn,
			MoveOut:            b.MoveOut,
			BasePriceCents:     b.BasePriceCents,
			NetPriceCents:      b.NetPriceCents,
			ServiceChargeCents: b.ServiceChargeCents,
			CreatedAt:          b.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Approve resolves a pending request in the tenant's favor and starts
// the payment window.
func (h *BookingRequestHandler) Approve(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	approved, err := h.Bookings.Approve(ctx, currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResp(approved))
}

// Decline resolves a pending request against the tenant.
func (h *BookingRequestHandler) Decline(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Bookings.Decline(ctx, currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes the tenant's own still-pending request.
func (h *BookingRequestHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Bookings.Delete(ctx, currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
