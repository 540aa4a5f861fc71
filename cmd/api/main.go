// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Folio HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations.
//  4. Build the read cache (memory or Redis).
//  5. Wire the relationship engine, domain services and handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/folio/internal/admin"
	"github.com/taibuivan/folio/internal/api"
	"github.com/taibuivan/folio/internal/core/category"
	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/core/relation"
	"github.com/taibuivan/folio/internal/core/series"
	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/config"
	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/middleware"
	"github.com/taibuivan/folio/internal/platform/migration"
	pgstore "github.com/taibuivan/folio/internal/platform/postgres"
	redisstore "github.com/taibuivan/folio/internal/platform/redis"
	"github.com/taibuivan/folio/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("cache_driver", cfg.CacheDriver),
		slog.Bool("admin_enabled", cfg.AdminEnabled()),
	)

	// Root context for background workers; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly rather than hanging.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	healthChecks := []api.HealthCheck{{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}}

	// ── 4. Read Cache ─────────────────────────────────────────────────────
	var readCache cache.Cache
	switch cfg.CacheDriver {
	case config.CacheDriverRedis:
		var client *goredis.Client
		client, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if closeErr := client.Close(); closeErr != nil {
				log.Error("redis_close_failed", slog.Any("error", closeErr))
			}
		}()

		readCache, err = cache.NewRedis(client, cache.RedisOptions{DefaultTTL: cfg.CacheTTL, Registerer: registry, Logger: log})
		must(log, err, "build redis cache")

		healthChecks = append(healthChecks, api.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisstore.Ping(ctx, client) },
		})

	default:
		memory, memoryErr := cache.NewMemory(rootCtx, cache.MemoryOptions{
			DefaultTTL:    cfg.CacheTTL,
			SweepInterval: cfg.CacheSweepInterval,
			Registerer:    registry,
			Logger:        log,
		})
		must(log, memoryErr, "build memory cache")
		defer func() { _ = memory.Close() }()

		readCache = memory
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	imageRepository := image.NewPostgresRepository(pool)
	seriesRepository := series.NewPostgresRepository(pool)
	categoryRepository := category.NewPostgresRepository(pool)

	engine := relation.NewEngine(relation.Options{
		Images:     imageRepository,
		Series:     seriesRepository,
		Categories: categoryRepository,
		Transactor: pgstore.NewTransactor(pool),
		Cache:      readCache,
		Logger:     log,
	})

	handlers := api.Handlers{
		Images:     image.NewHandler(image.NewService(imageRepository, engine, readCache, log)),
		Series:     series.NewHandler(series.NewService(seriesRepository, imageRepository, engine, readCache, log)),
		Categories: category.NewHandler(category.NewService(categoryRepository, engine, readCache, log)),
	}
	handlers.Liveness, handlers.Readiness = api.NewHealthHandlers(log, healthChecks...)

	// A missing key pair leaves the console disabled: reads stay public, writes answer 401.
	var verifier middleware.TokenVerifier
	if cfg.AdminEnabled() {
		tokens, tokenErr := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
		must(log, tokenErr, "initialize jwt service")
		verifier = tokens

		adminService, adminErr := admin.NewService(adminAccounts(cfg), tokens, cfg.AdminTokenTTL, log)
		must(log, adminErr, "initialize admin accounts")

		loginLimiter := middleware.NewRateLimiter(rootCtx, constants.LoginRateLimitRPS, constants.LoginRateLimitBurst)
		handlers.Admin = admin.NewHandler(adminService, engine, loginLimiter.Handler)
	} else {
		log.Warn("admin_console_disabled", slog.String("reason", "ADMIN_PASSWORD_HASH or JWT key paths not set"))
	}

	httpMetrics, err := middleware.NewHTTPMetrics(registry)
	must(log, err, "register http metrics")

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(log, api.Options{
		Port:        cfg.ServerPort,
		CORS:        cfg,
		Verifier:    verifier,
		Metrics:     httpMetrics,
		Gatherer:    registry,
		RateLimiter: middleware.NewRateLimiter(rootCtx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst),
	}, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		rootCancel()
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// adminAccounts lists the console logins configured in the environment.
func adminAccounts(cfg *config.Config) []admin.Account {
	accounts := []admin.Account{{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		Role:         sec.RoleOwner,
	}}

	if cfg.EditorUsername != "" {
		accounts = append(accounts, admin.Account{
			Username:     cfg.EditorUsername,
			PasswordHash: cfg.EditorPasswordHash,
			Role:         sec.RoleEditor,
		})
	}

	return accounts
}

// newLogger builds the JSON root logger carrying the app attribute.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
