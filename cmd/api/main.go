// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/carterperez-dev/bistro-backend/internal/admin"
	"github.com/carterperez-dev/bistro-backend/internal/auth"
	"github.com/carterperez-dev/bistro-backend/internal/cart"
	"github.com/carterperez-dev/bistro-backend/internal/config"
	"github.com/carterperez-dev/bistro-backend/internal/core"
	"github.com/carterperez-dev/bistro-backend/internal/events"
	"github.com/carterperez-dev/bistro-backend/internal/health"
	"github.com/carterperez-dev/bistro-backend/internal/menu"
	"github.com/carterperez-dev/bistro-backend/internal/middleware"
	"github.com/carterperez-dev/bistro-backend/internal/payment"
	"github.com/carterperez-dev/bistro-backend/internal/review"
	"github.com/carterperez-dev/bistro-backend/internal/server"
	"github.com/carterperez-dev/bistro-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second

	checkoutRequestsPerMinute = 10
	checkoutBurst             = 4
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
		"auto_migrate", cfg.Database.AutoMigrate,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	switch {
	case errors.Is(err, core.ErrUnavailable):
		logger.Warn("redis unreachable, rate limits are per instance until it recovers",
			"error", err,
		)
	case err != nil:
		return err
	default:
		logger.Info("redis connected",
			"pool_size", cfg.Redis.PoolSize,
		)
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	gateway, err := newGateway(cfg.Payment)
	if err != nil {
		return err
	}
	logger.Info("payment gateway initialized",
		"provider", gateway.Name(),
		"currency", cfg.Payment.Currency,
	)

	deps := []health.Dependency{health.Critical(db), health.Optional(redis)}

	var publisher *events.Publisher
	if cfg.AMQP.URL != "" {
		pub, pubErr := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if pubErr != nil {
			logger.Warn("event publisher disabled", "error", pubErr)
		} else {
			publisher = pub
			deps = append(deps, health.Optional(pub))
			logger.Info("event publisher connected",
				"exchange", cfg.AMQP.Exchange,
			)
		}
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authHandler := auth.NewHandler(jwtManager)

	menuHandler := menu.NewHandler(menu.NewRepository(db.DB))
	reviewHandler := review.NewHandler(review.NewRepository(db.DB))

	cartRepo := cart.NewRepository(db.DB)
	cartHandler := cart.NewHandler(cart.NewService(cartRepo))

	var eventPublisher payment.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	paymentSvc := payment.NewService(
		payment.NewRepository(db.DB),
		cartRepo,
		gateway,
		eventPublisher,
		payment.ServiceConfig{
			Currency:       cfg.Payment.Currency,
			GatewayTimeout: cfg.Payment.GatewayTimeout,
		},
		logger,
	)
	paymentHandler := payment.NewHandler(paymentSvc)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Repo:       admin.NewRepository(db.DB),
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
	})

	healthHandler := health.NewHandler(deps...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	limiter := middleware.NewLimiter(redis.Client, logger)
	router.Use(limiter.Enforce(middleware.Policy{
		Name: "api",
		Limit: middleware.PerWindow(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
			cfg.RateLimit.Window,
		),
		Subject: middleware.ClientIP,
		Skip:    isHealthProbe,
	}))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	authenticator := middleware.RequireToken(jwtManager).Middleware
	adminOnly := middleware.RequireAdmin(userSvc).Middleware

	// Intent creation and settlement share one bucket per diner.
	checkoutLimiter := limiter.Enforce(middleware.Policy{
		Name: "checkout",
		Limit: middleware.PerWindow(
			checkoutRequestsPerMinute,
			checkoutBurst,
			time.Minute,
		),
		Subject: middleware.Caller,
	})

	authHandler.RegisterRoutes(router)
	userHandler.RegisterRoutes(router, authenticator, adminOnly)
	menuHandler.RegisterRoutes(router)
	reviewHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router, authenticator)
	paymentHandler.RegisterRoutes(router, authenticator, checkoutLimiter)
	adminHandler.RegisterRoutes(router, authenticator, adminOnly)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("event publisher close error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func newGateway(cfg config.PaymentConfig) (payment.Gateway, error) {
	switch cfg.Provider {
	case config.ProviderStripe:
		return payment.NewStripeGateway(cfg.StripeSecretKey), nil
	case config.ProviderOmise:
		return payment.NewOmiseGateway(
			cfg.OmisePublicKey,
			cfg.OmiseSecretKey,
			cfg.OmiseSourceType,
		)
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

func isHealthProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/livez", "/readyz":
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/.well-known/")
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
