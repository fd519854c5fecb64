package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/tastebook/internal/featureflags"
	"github.com/yourorg/tastebook/internal/handler"
	"github.com/yourorg/tastebook/internal/infrastructure/logger"
	"github.com/yourorg/tastebook/internal/infrastructure/redis"
	"github.com/yourorg/tastebook/internal/observability/tracing"
	"github.com/yourorg/tastebook/internal/reliability/circuitbreaker"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/internal/security/audit"
	"github.com/yourorg/tastebook/internal/security/auth"
	"github.com/yourorg/tastebook/internal/security/ratelimit"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
	"github.com/yourorg/tastebook/internal/worker"
	"github.com/yourorg/tastebook/pkg/config"
	"github.com/yourorg/tastebook/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting tastebook server",
		slog.String("environment", cfg.Environment),
		slog.Any("flags", featureflags.Snapshot()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OpenTelemetry.Endpoint, cfg.OpenTelemetry.ServiceName, cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Database and schema
	pool, err := database.NewConnectionPool(ctx, cfg.Database.Database(), log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Error("failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	checks := map[string]handler.Pinger{"database": handler.PingFunc(pool.Health)}

	// 5. Redis is optional; it backs the shared rate limit store
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		checks["redis"] = redisClient
	}

	// 6. Services
	auditLogger := audit.NewLogger(log)
	deps := service.Deps{Pool: pool, Audit: auditLogger, Logger: log}
	engine := service.NewMetricsEngine(log)
	services := handler.Services{
		PlaceTypes: service.NewPlaceTypeService(deps),
		Tags:       service.NewTagService(deps),
		Foods:      service.NewFoodService(deps),
		Areas:      service.NewAreaService(deps),
		Places:     service.NewPlaceService(deps),
		Visits:     service.NewVisitService(deps, engine),
		VisitFoods: service.NewVisitFoodService(deps),
	}

	// 6a. Aggregate reconcile worker
	if cfg.ReconcileInterval > 0 {
		admin := service.NewAdminService(deps, engine)
		go worker.NewReconcileWorker(admin, log, cfg.ReconcileInterval).Start(ctx)
	}

	// 7. Security components
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	households := repository.NewHouseholdRepository(pool.DB(), log)
	resolver := tenant.NewResolver(households, cfg.HouseholdCacheTTL, log)
	rateLimiter, err := newRateLimiter(cfg, redisClient, log)
	if err != nil {
		log.Error("failed to initialize rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. HTTP
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: handler.NewRouter(handler.RouterConfig{
			Services:    services,
			Tokens:      tokenManager,
			Resolver:    resolver,
			Limiter:     rateLimiter,
			Checks:      checks,
			CORSOrigins: cfg.CORSAllowedOrigins,
			Logger:      log,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("db_driver", pool.Driver()),
		slog.Bool("rate_limit", rateLimiter != nil),
		slog.Int64("rate_limit_per_minute", cfg.RateLimit.PerMinute),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	cancel() // stop the reconcile worker
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// newRateLimiter returns nil when rate limiting is disabled. The redis store sits behind a
// circuit breaker and falls back to the in-process store while redis is unavailable.
func newRateLimiter(cfg *config.Config, redisClient *redis.Client, log *slog.Logger) (*ratelimit.Limiter, error) {
	opts := cfg.RateLimit
	if !opts.Enabled {
		return nil, nil
	}
	if opts.Storage != config.StorageRedis || redisClient == nil {
		return ratelimit.NewLimiter(opts.PerMinute, time.Minute, log), nil
	}

	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		log.Warn("rate limit store breaker changed state",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return ratelimit.NewRedisLimiter(redisClient.Raw(), opts.PerMinute, time.Minute, breaker, log)
}
