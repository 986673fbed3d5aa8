package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/model"
	"github.com/iliyamo/rental-marketplace/internal/repository"
)

// PropertyHandler exposes the listing endpoints. Listings themselves
// are simple CRUD; the interesting behavior (availability flips,
// requester lists) is driven by the booking lifecycle.
type PropertyHandler struct {
	Properties *repository.PropertyRepo
}

func NewPropertyHandler(p *repository.PropertyRepo) *PropertyHandler {
	return &PropertyHandler{Properties: p}
}

type createPropertyReq struct {
	Title          string `json:"title"`
	PricingModel   string `json:"pricing_model"`
	BasePriceCents int64  `json:"base_price_cents"`
	OtherFeesCents int64  `json:"other_fees_cents"`
}

type propertyResp struct {
	ID             uint64  `json:"id"`
	LandlordID     uint64  `json:"landlord_id"`
	Title          string  `json:"title"`
	PricingModel   string  `json:"pricing_model"`
	BasePriceCents int64   `json:"base_price_cents"`
	OtherFeesCents int64   `json:"other_fees_cents"`
	IsAvailable    bool    `json:"is_available"`
	BookedBy       *uint64 `json:"booked_by,omitempty"`
	RevenueCents   int64   `json:"revenue_cents"`
}

func toPropertyResp(p *model.Property) propertyResp {
	return propertyResp{
		ID:             p.ID,
		LandlordID:     p.LandlordID,
		Title:          p.Title,
		PricingModel:   p.PricingModel,
		BasePriceCents: p.BasePriceCents,
		OtherFeesCents: p.OtherFeesCents,
		IsAvailable:    p.IsAvailable,
		BookedBy:       p.BookedBy,
		RevenueCents:   p.RevenueCents,
	}
}

var pricingModels = map[string]bool{
	model.PricingHourly:  true,
	model.PricingDaily:   true,
	model.PricingWeekly:  true,
	model.PricingMonthly: true,
	model.PricingYearly:  true,
}

// Create registers a new listing for the authenticated landlord.
func (h *PropertyHandler) Create(c echo.Context) error {
	var req createPropertyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.PricingModel = strings.ToUpper(strings.TrimSpace(req.PricingModel))
	if req.Title == "" || !pricingModels[req.PricingModel] || req.BasePriceCents <= 0 || req.OtherFeesCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, pricing_model and positive base_price_cents required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p := &model.Property{
		LandlordID:     currentUserID(c),
		Title:          req.Title,
		PricingModel:   req.PricingModel,
		BasePriceCents: req.BasePriceCents,
		OtherFeesCents: req.OtherFeesCents,
		IsAvailable:    true,
	}
	if _, err := h.Properties.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create property failed"})
	}
	return c.JSON(http.StatusCreated, toPropertyResp(p))
}

// List returns every available listing.
func (h *PropertyHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	props, err := h.Properties.ListAvailable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list properties failed"})
	}
	out := make([]propertyResp, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one listing.
func (h *PropertyHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Properties.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load property failed"})
	}
	return c.JSON(http.StatusOK, toPropertyResp(p))
}

// Requesters returns the pending requester ids for a landlord's own
// listing.
func (h *PropertyHandler) Requesters(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Properties.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load property failed"})
	}
	if p.LandlordID != currentUserID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ids, err := h.Properties.Requesters(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list requesters failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"property_id": id, "requesters": ids})
}
