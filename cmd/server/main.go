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

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/copperline/storefront/internal"
	"github.com/copperline/storefront/internal/auth"
	"github.com/copperline/storefront/internal/billing"
	"github.com/copperline/storefront/internal/bootstrap"
	"github.com/copperline/storefront/internal/events"
	"github.com/copperline/storefront/internal/handler/api"
	"github.com/copperline/storefront/internal/handler/webhook"
	"github.com/copperline/storefront/internal/middleware"
	"github.com/copperline/storefront/internal/router"
	"github.com/copperline/storefront/internal/routes"
	"github.com/copperline/storefront/internal/service"
	"github.com/copperline/storefront/internal/store"
	"github.com/copperline/storefront/internal/store/memory"
	"github.com/copperline/storefront/internal/store/postgres"
	"github.com/copperline/storefront/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	cleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer cleanup()

	// ==========================================================================
	// Stores
	// ==========================================================================

	var (
		users    store.UserStore
		products store.ProductStore
	)

	reviewStore := memory.NewReviewStore()

	if cfg.DatabaseURL != "" {
		logger.Info().Msg("connecting to database")
		sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := sqlDB.Ping(); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(sqlDB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		sqlDB.Close()

		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		users = postgres.NewUserStore(pool)
		products = postgres.NewProductStore(pool)
		logger.Info().Msg("postgres stores ready")
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory stores with demo catalog")
		memProducts := memory.NewProductStore()
		if err := memory.Seed(ctx, memProducts, reviewStore); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		users = memory.NewUserStore()
		products = memProducts
	}

	// TODO: port cart/order/review/address stores to postgres; until then
	// those records live in memory even when a database is configured.
	carts := memory.NewCartStore()
	orders := memory.NewOrderStore()
	addresses := memory.NewAddressStore()
	audit := memory.NewAuditStore()
	webhooks := memory.NewWebhookStore()

	if err := bootstrap.EnsureAdmin(ctx, users, bootstrap.AdminConfig{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, logger); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	// ==========================================================================
	// External services
	// ==========================================================================

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		publisher = nats
	} else {
		logger.Warn().Msg("NATS_URL not set, order events are discarded")
	}
	defer publisher.Close()

	var provider billing.Provider
	if cfg.Stripe.SecretKey != "" {
		stripeProvider, err := billing.NewStripeProvider(billing.StripeConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		})
		if err != nil {
			return fmt.Errorf("stripe initialization failed: %w", err)
		}
		provider = stripeProvider
		logger.Info().Bool("test_mode", stripeProvider.IsTestMode()).Msg("stripe provider ready")
	} else {
		if cfg.Env == "prod" {
			return errors.New("STRIPE_SECRET_KEY must be set in production")
		}
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, using mock billing provider")
		provider = billing.NewMockProvider()
	}

	// ==========================================================================
	// Services
	// ==========================================================================

	business := telemetry.NewBusinessMetrics("storefront")
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)

	cartService := service.NewCartService(carts, products, logger, business)
	productService := service.NewProductService(products, logger)
	reviewService := service.NewReviewService(reviewStore, products, users, logger)
	userService := service.NewUserService(users, audit, tokens, logger, business)
	accountService := service.NewAccountService(addresses, audit, logger)
	orderService := service.NewOrderService(orders, carts, publisher, logger, business)
	checkoutService := service.NewCheckoutService(provider, orders, carts, products, webhooks,
		publisher, cfg.BaseURL, logger, business)

	// ==========================================================================
	// HTTP
	// ==========================================================================

	httpMetrics := middleware.NewMetrics("storefront")
	defaultLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	authLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer defaultLimiter.Stop()
	defer authLimiter.Stop()

	r := router.New(
		middleware.RequestID,
		middleware.RequestLogger(logger),
		middleware.Recover,
		httpMetrics.Middleware,
		middleware.SecurityHeaders,
		middleware.CORS(cfg.CORSOrigin),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		defaultLimiter.Middleware,
		middleware.Authenticate(tokens),
		telemetry.SentryMiddleware(),
	)

	r.Handle(http.MethodGet, "/metrics", httpMetrics.Handler())

	routes.RegisterAPIRoutes(r, routes.APIDeps{
		Products:     api.NewProductHandler(productService, reviewService, logger),
		Cart:         api.NewCartHandler(cartService, logger),
		Auth:         api.NewAuthHandler(userService, cartService, logger),
		Orders:       api.NewOrderHandler(orderService, checkoutService, logger),
		Account:      api.NewAccountHandler(userService, accountService, reviewService, logger),
		Reviews:      api.NewReviewHandler(reviewService, logger),
		RequireAuth:  middleware.RequireAuth,
		RequireAdmin: middleware.RequireAdmin,
		AuthLimiter:  authLimiter.Middleware,
	})
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		Stripe: webhook.NewStripeHandler(checkoutService, logger),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-shutdownCtx.Done():
	}

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
