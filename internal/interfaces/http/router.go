package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcevallos/restopos-api/internal/application/auth"
	"github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/application/orders"
	"github.com/dcevallos/restopos-api/internal/application/settings"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	OrderUC    *orders.UseCase
	IssueUC    *billing.IssueBillUseCase
	NoteUC     *billing.CreditNoteUseCase
	RIDEUC     *billing.RIDEUseCase
	ResetUC    *billing.ResetBillingUseCase
	SettingsUC *settings.UseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Orders (protegido)
	ordersGroup := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.Get)
	ordersGroup.Put("/:id", orderHandler.Update)
	ordersGroup.Post("/:id/status", orderHandler.CycleStatus)

	// Bills (protegido, facturación electrónica)
	bills := protected.Group("/bills")
	billHandler := NewBillHandler(deps.IssueUC, deps.NoteUC, deps.RIDEUC)
	bills.Post("/", billHandler.Issue)
	bills.Get("/", billHandler.List)
	bills.Get("/:id", billHandler.Get)
	bills.Get("/:id/status", billHandler.Status)
	bills.Post("/:id/check", billHandler.Check)
	bills.Post("/:id/credit-note", billHandler.CreateCreditNote)
	bills.Get("/:id/credit-note", billHandler.GetCreditNote)
	bills.Get("/:id/ride", billHandler.DownloadRIDE)

	// Settings (protegido; el reset de facturación es solo admin)
	settingsGroup := protected.Group("/settings")
	settingsHandler := NewSettingsHandler(deps.SettingsUC, deps.ResetUC)
	settingsGroup.Get("/", settingsHandler.Get)
	settingsGroup.Put("/", settingsHandler.Update)
	settingsGroup.Post("/billing/reset", RequireRole("admin"), settingsHandler.ResetBilling)
}
