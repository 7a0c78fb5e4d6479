package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dukerupert/skadi/internal"
	"github.com/dukerupert/skadi/internal/billing"
	"github.com/dukerupert/skadi/internal/bootstrap"
	"github.com/dukerupert/skadi/internal/email"
	"github.com/dukerupert/skadi/internal/handler/admin"
	"github.com/dukerupert/skadi/internal/handler/storefront"
	"github.com/dukerupert/skadi/internal/handler/webhook"
	"github.com/dukerupert/skadi/internal/postgres"
	"github.com/dukerupert/skadi/internal/router"
	"github.com/dukerupert/skadi/internal/routes"
	"github.com/dukerupert/skadi/internal/service"
	"github.com/dukerupert/skadi/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	stores := postgres.NewStores(pool)

	// Seed the initial admin account
	if err := bootstrap.EnsureAdmin(ctx, stores.Users, &bootstrap.AdminConfig{
		Email:     cfg.Admin.Email,
		Password:  cfg.Admin.Password,
		FirstName: cfg.Admin.FirstName,
		LastName:  cfg.Admin.LastName,
	}, logger); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	// Initialize Stripe billing provider
	logger.Info("Initializing Stripe billing provider...")
	stripeConfig := billing.StripeConfig{
		APIKey:         cfg.Stripe.SecretKey,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		TimeoutSeconds: cfg.Stripe.TimeoutSeconds,
	}
	billingProvider, err := billing.NewStripeProvider(stripeConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info("Stripe billing provider initialized", "test_mode", stripeConfig.IsTestMode())

	// Initialize email notifier
	smtpSender := email.NewSMTPSender(
		cfg.Email.Host,
		int(cfg.Email.Port),
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.From,
		cfg.Email.FromName,
	)
	notifier, err := email.NewService(smtpSender, cfg.Email.From, cfg.Email.FromName)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Register metrics
	telemetry.NewBusinessMetrics("skadi")
	httpMetrics := telemetry.NewHTTPMetrics("skadi")

	// Initialize services
	activity, err := service.NewActivityRecorder(stores.Activity, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize activity recorder: %w", err)
	}

	catalogService, err := service.NewCatalogService(stores.Products, activity, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog service: %w", err)
	}

	checkoutService, err := service.NewCheckoutService(
		stores.Products,
		stores.Orders,
		billingProvider,
		logger,
		cfg.OrderPrefix,
		cfg.BaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize checkout service: %w", err)
	}

	paymentEvents, err := service.NewPaymentEventService(stores.Orders, notifier, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize payment event service: %w", err)
	}

	orderService, err := service.NewOrderService(stores.Orders, activity, notifier, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize order service: %w", err)
	}

	teamService, err := service.NewTeamService(stores.Users, activity, notifier, logger, cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize team service: %w", err)
	}

	reportService, err := service.NewReportService(stores.Orders, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize report service: %w", err)
	}

	// Create router
	r := router.New(
		router.Recovery(logger),
		router.RequestID(),
		httpMetrics.Middleware,
		router.Logger(logger),
		router.CORS(cfg.Cors.AllowedOrigins),
	)

	// Register routes
	routes.Register(r, routes.Deps{
		StorefrontProducts: storefront.NewProductHandler(catalogService),
		Checkout:           storefront.NewCheckoutHandler(checkoutService),
		StripeWebhook:      webhook.NewStripeHandler(billingProvider, paymentEvents, cfg.Stripe.WebhookSecret, logger),

		AdminOrders:   admin.NewOrderHandler(orderService),
		AdminProducts: admin.NewProductHandler(catalogService),
		AdminTeam:     admin.NewTeamHandler(teamService),
		AdminActivity: admin.NewActivityHandler(activity),
		AdminReports:  admin.NewReportHandler(reportService),

		Metrics: httpMetrics.Handler(),
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
