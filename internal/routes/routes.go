// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"walletledger/internal/handlers"
	"walletledger/internal/middleware"
	"walletledger/internal/models"
	"walletledger/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	WalletService wallet.Service
	Auth          *middleware.AuthMiddleware
	Health        *handlers.HealthHandler
	// RateLimiter caps API requests per owner. Nil disables it.
	RateLimiter *middleware.RateLimiter
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *logrus.Logger
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	walletHandler := handlers.NewWalletHandler(deps.WalletService, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.WalletService, deps.Logger)

	// Public endpoints (no auth required)
	if deps.Health != nil {
		app.Get("/health", deps.Health.HealthCheck)
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1", deps.Auth.Handler)
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Handler)
	}

	setupWalletRoutes(api, walletHandler)
	setupAdminRoutes(api, adminHandler)
}

func setupWalletRoutes(router fiber.Router, h *handlers.WalletHandler) {
	read := middleware.HasPermission(models.PermissionWalletRead)
	write := middleware.HasPermission(models.PermissionWalletWrite)
	credit := middleware.HasPermission(models.PermissionWalletCredit)
	earmark := middleware.HasPermission(models.PermissionWalletEarmark)

	wallets := router.Group("/wallets")
	wallets.Post("/", write, h.CreateWallet)
	wallets.Get("/", read, h.ListWallets)
	// Registered before /:id so "deposit" is not taken for a wallet id.
	wallets.Post("/deposit", credit, h.Deposit)

	wallets.Get("/:id", read, h.GetWallet)
	wallets.Get("/:id/summary", read, h.GetSummary)
	wallets.Get("/:id/entries", middleware.HasPermission(models.PermissionLedgerRead), h.ListEntries)
	wallets.Post("/:id/withdraw", write, h.Withdraw)
	wallets.Post("/:id/lock", earmark, h.Lock)
	wallets.Post("/:id/unlock", earmark, h.Unlock)
	wallets.Post("/:id/reserve", earmark, h.Reserve)
	wallets.Post("/:id/unreserve", earmark, h.Unreserve)

	router.Post("/transfers", write, h.Transfer)
}

func setupAdminRoutes(router fiber.Router, h *handlers.AdminHandler) {
	admin := router.Group("/admin", middleware.AdminAuthMiddleware)

	walletAdmin := middleware.HasPermission(models.PermissionWalletAdmin)
	admin.Post("/wallets/:id/suspend", walletAdmin, h.Suspend)
	admin.Post("/wallets/:id/freeze", walletAdmin, h.Freeze)
	admin.Post("/wallets/:id/deactivate", walletAdmin, h.Deactivate)
	admin.Post("/wallets/:id/activate", walletAdmin, h.Activate)
	admin.Post("/wallets/:id/close", walletAdmin, h.Close)
	admin.Put("/wallets/:id/limits", walletAdmin, h.SetLimits)
	admin.Post("/wallets/:id/interest", walletAdmin, h.ApplyInterest)

	admin.Post("/entries/:id/reverse", middleware.HasPermission(models.PermissionLedgerAdmin), h.ReverseEntry)
}
