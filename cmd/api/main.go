package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dcevallos/restopos-api/internal/application/auth"
	appbilling "github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/application/orders"
	"github.com/dcevallos/restopos-api/internal/application/settings"
	infrapdf "github.com/dcevallos/restopos-api/internal/infrastructure/pdf"
	"github.com/dcevallos/restopos-api/internal/infrastructure/postgres"
	infrasri "github.com/dcevallos/restopos-api/internal/infrastructure/sri"
	httpRouter "github.com/dcevallos/restopos-api/internal/interfaces/http"
	"github.com/dcevallos/restopos-api/pkg/config"
	"github.com/dcevallos/restopos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	restaurantRepo := postgres.NewRestaurantRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	billRepo := postgres.NewBillRepository(pool)
	noteRepo := postgres.NewCreditNoteRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Cliente HTTP hacia el servicio de facturación que firma el XML y lo
	// autoriza ante el SRI. Sin URL configurada la emisión fallará en el envío,
	// nunca antes de consumir el secuencial; por eso se avisa al arrancar.
	if cfg.SRI.BillingServiceURL == "" {
		log.Warn().Msg("SRI_BILLING_URL vacío: la emisión de comprobantes fallará en el envío")
	}
	sriClient := infrasri.NewClient(cfg.SRI)

	settingsUC := settings.NewUseCase(restaurantRepo)
	orderUC := orders.NewUseCase(orderRepo)
	issueUC := appbilling.NewIssueBillUseCase(txRunner, sriClient, orderRepo, billRepo, restaurantRepo, settingsUC)
	noteUC := appbilling.NewCreditNoteUseCase(sriClient, billRepo, noteRepo, restaurantRepo, settingsUC)
	resetUC := appbilling.NewResetBillingUseCase(txRunner, settingsUC)
	rideUC := appbilling.NewRIDEUseCase(infrapdf.NewMarotoRIDEGenerator(), billRepo, orderRepo, restaurantRepo)
	authUC := auth.NewAuthUseCase(userRepo, restaurantRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "RestoPOS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		OrderUC:    orderUC,
		IssueUC:    issueUC,
		NoteUC:     noteUC,
		RIDEUC:     rideUC,
		ResetUC:    resetUC,
		SettingsUC: settingsUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
