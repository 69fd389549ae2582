// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelamos/entitled/internal/admin"
	"github.com/angelamos/entitled/internal/auth"
	"github.com/angelamos/entitled/internal/config"
	"github.com/angelamos/entitled/internal/core"
	"github.com/angelamos/entitled/internal/entitlement"
	"github.com/angelamos/entitled/internal/feature"
	"github.com/angelamos/entitled/internal/health"
	"github.com/angelamos/entitled/internal/middleware"
	"github.com/angelamos/entitled/internal/organization"
	"github.com/angelamos/entitled/internal/override"
	"github.com/angelamos/entitled/internal/plan"
	"github.com/angelamos/entitled/internal/role"
	"github.com/angelamos/entitled/internal/server"
	"github.com/angelamos/entitled/internal/usage"
	"github.com/angelamos/entitled/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("generate-keys", false, "generate a JWT key pair and exit")
	flag.Parse()

	if *genKeys {
		if err := auth.GenerateKeyPair("keys/private.pem", "keys/public.pem"); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("key pair written to keys/")
		return
	}

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
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	metrics := core.NewMetrics()

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}

	// Repositories.
	userRepo := user.NewRepository(db.DB)
	orgRepo := organization.NewRepository(db.DB)
	featureRepo := feature.NewRepository(db.DB)
	planRepo := plan.NewRepository(db.DB)
	roleRepo := role.NewRepository(db.DB)
	overrideRepo := override.NewRepository(db.DB)
	usageRepo := usage.NewRepository(db.DB)

	// Resolution pipeline: loader over the repositories, uncached resolver,
	// Redis-backed fail-open cache, cached service on top.
	loader := entitlement.NewLoader(
		orgRepo,
		planRepo,
		roleRepo,
		overrideRepo,
		usageRepo,
	)
	resolver := entitlement.NewResolver(loader)
	cache := entitlement.NewCache(
		entitlement.NewRedisStore(redis.Client),
		cfg.Entitlements.CacheTTL,
		metrics,
	)
	entitlementSvc := entitlement.NewService(resolver, cache, metrics)

	// Services. Everything that mutates resolution inputs gets the
	// entitlement service as its invalidator.
	userSvc := user.NewService(userRepo)
	orgSvc := organization.NewService(orgRepo, db.DB, planRepo, entitlementSvc)
	featureSvc := feature.NewService(featureRepo, entitlementSvc)
	planSvc := plan.NewService(planRepo, entitlementSvc)
	roleSvc := role.NewService(roleRepo, db.DB, entitlementSvc)
	overrideSvc := override.NewService(overrideRepo, entitlementSvc)
	usageSvc := usage.NewService(usageRepo, entitlementSvc, metrics)
	authSvc := auth.NewService(jwtManager, user.NewProvider(userRepo))

	sweeper := override.NewSweeper(
		overrideRepo,
		metrics,
		cfg.Entitlements.CleanupSchedule,
		cfg.Entitlements.CleanupRetention,
	)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	// Handlers.
	authHandler := auth.NewHandler(authSvc)
	userHandler := user.NewHandler(userSvc)
	orgHandler := organization.NewHandler(orgSvc)
	featureHandler := feature.NewHandler(featureSvc)
	planHandler := plan.NewHandler(planSvc)
	roleHandler := role.NewHandler(roleSvc)
	overrideHandler := override.NewHandler(overrideSvc)
	entitlementHandler := entitlement.NewHandler(entitlementSvc)
	usageHandler := usage.NewHandler(usageSvc)

	healthHandler := health.NewHandler()
	healthHandler.Register("database", db)
	healthHandler.Register("redis", redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r, authenticator)
		orgHandler.RegisterRoutes(r, authenticator, adminOnly)
		featureHandler.RegisterRoutes(r, authenticator, adminOnly)
		planHandler.RegisterRoutes(r, authenticator, adminOnly)
		roleHandler.RegisterRoutes(r, authenticator, adminOnly)
		overrideHandler.RegisterRoutes(r, authenticator, adminOnly)
		entitlementHandler.RegisterRoutes(r, authenticator, adminOnly)
		usageHandler.RegisterRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

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

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
