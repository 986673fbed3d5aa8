// Package router wires the HTTP routes to their handlers and
// middleware. Public endpoints live at the top level; authenticated
// endpoints live under /v1 behind the JWT middleware with role
// enforcement per group.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-marketplace/internal/handler"
	"github.com/iliyamo/rental-marketplace/internal/middleware"
	"github.com/iliyamo/rental-marketplace/internal/model"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Property *handler.PropertyHandler
	Requests *handler.BookingRequestHandler
	Payments *handler.PaymentHandler
	Wallet   *handler.WalletHandler
	Admin    *handler.AdminHandler
}

// Register mounts every route on the Echo instance.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	// auth
	e.POST("/v1/auth/register", h.Auth.Register)
	e.POST("/v1/auth/login", h.Auth.Login)

	// the payment callback is unauthenticated: the gateway redirect
	// carries no bearer token, and settlement has its own guards
	e.GET("/v1/payments/verify", h.Payments.Verify)

	// public browse
	e.GET("/v1/properties", h.Property.List)
	e.GET("/v1/properties/:id", h.Property.Get)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	any := auth.Group("", middleware.RequireRole(model.RoleTenant, model.RoleLandlord, model.RoleAdmin))
	any.GET("/me", h.Auth.Me)
	any.GET("/wallet", h.Wallet.Get)
	any.POST("/wallet/bank-details", h.Wallet.SubmitBankDetails)
	any.POST("/wallet/withdrawals", h.Wallet.Withdraw)
	any.GET("/wallet/transactions", h.Wallet.History)
	any.GET("/booking-requests/:id", h.Requests.Get)

	tenant := auth.Group("", middleware.RequireRole(model.RoleTenant))
	tenant.POST("/booking-requests", h.Requests.Create)
	tenant.GET("/booking-requests", h.Requests.ListMine)
	tenant.DELETE("/booking-requests/:id", h.Requests.Delete)
	tenant.POST("/booking-requests/:id/pay", h.Payments.CreateLink)

	landlord := auth.Group("", middleware.RequireRole(model.RoleLandlord))
	landlord.POST("/properties", h.Property.Create)
	landlord.GET("/properties/:id/requesters", h.Property.Requesters)
	landlord.GET("/booking-requests/incoming", h.Requests.ListIncoming)
	landlord.POST("/booking-requests/:id/approve", h.Requests.Approve)
	landlord.POST("/booking-requests/:id/decline", h.Requests.Decline)
	landlord.GET("/bookings", h.Requests.ListConfirmed)

	admin := auth.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/wallets/:user_id/block", h.Admin.BlockWallet)
	admin.POST("/wallets/:user_id/unblock", h.Admin.UnblockWallet)
}
