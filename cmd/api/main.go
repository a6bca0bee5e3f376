// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the crewdesk HTTP server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations (idempotent).
//  4. Choose the key-value backend: Redis when REDIS_URL is set, else memory.
//  5. Build the security controls (rate limiter, lockout, CAPTCHA).
//  6. Wire the auth provider for AUTH_MODE and the domain handlers.
//  7. Run the HTTP server and the session sweeper until a signal arrives.
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

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/crewdesk/internal/api"
	"github.com/taibuivan/crewdesk/internal/core/event"
	"github.com/taibuivan/crewdesk/internal/platform/config"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/kv"
	"github.com/taibuivan/crewdesk/internal/platform/mail"
	"github.com/taibuivan/crewdesk/internal/platform/metrics"
	"github.com/taibuivan/crewdesk/internal/platform/middleware"
	"github.com/taibuivan/crewdesk/internal/platform/migration"
	pgstore "github.com/taibuivan/crewdesk/internal/platform/postgres"
	redisstore "github.com/taibuivan/crewdesk/internal/platform/redis"
	"github.com/taibuivan/crewdesk/internal/security/captcha"
	"github.com/taibuivan/crewdesk/internal/security/lockout"
	"github.com/taibuivan/crewdesk/internal/security/ratelimit"
	"github.com/taibuivan/crewdesk/internal/users/account"
	"github.com/taibuivan/crewdesk/internal/users/auth"
	"github.com/taibuivan/crewdesk/internal/users/identity"
	"github.com/taibuivan/crewdesk/internal/users/role"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[crewdesk] service_initializing")

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
		slog.String("auth_mode", cfg.AuthMode),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. Key-value store ────────────────────────────────────────────────
	var (
		store      kv.Store
		checkCache func(context.Context) error
	)
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer redisstore.Close(rdb, log)

		store = kv.NewRedis(rdb)
		checkCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	} else {
		log.Warn("kv_store_in_memory", slog.String("reason", "REDIS_URL unset; limits are per process"))
		store = kv.NewMemory()
	}

	// ── 5. Security controls ──────────────────────────────────────────────
	collector := metrics.New()
	limiter := ratelimit.New(store).WithMetrics(collector)
	tracker := lockout.New(store).WithMetrics(collector)
	verifier := captcha.New(cfg.Captcha, captcha.WithMetrics(collector))

	// ── 6. Domain wiring ──────────────────────────────────────────────────
	accounts := auth.NewAccountRepository(pool)
	sessions := auth.NewSessions(auth.NewSessionRepository(pool), cfg.IsProduction())
	roleRepository := role.NewRepository(pool)

	debug := identity.NewDebugBypass(cfg)
	if debug != nil {
		log.Warn("debug_identity_enabled", slog.String("role", cfg.DebugForceRole))
	}
	resolver := identity.NewResolver(sessions, auth.NewDirectory(accounts, roleRepository), debug)

	var authHandler *auth.Handler
	if cfg.UsesOAuth() {
		provider, err := auth.NewOAuthProvider(startupCtx, cfg, accounts)
		must(log, err, "discover oauth provider")
		authHandler = auth.NewHandler(sessions, nil, provider, verifier.SiteKey())
	} else {
		service := auth.NewService(auth.ServiceConfig{
			Accounts:    accounts,
			ResetTokens: auth.NewResetTokenRepository(store),
			Sessions:    sessions,
			Limiter:     limiter,
			Lockout:     tracker,
			Captcha:     verifier,
			Mailer:      mail.New(cfg.SMTP, log),
			BaseURL:     cfg.BaseURL,
			Production:  cfg.IsProduction(),
		})
		authHandler = auth.NewHandler(sessions, service, nil, verifier.SiteKey())
	}

	accountService := account.NewService(account.NewAccountRepository(pool), account.NewSessionRepository(pool))

	health := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		CheckCache:    checkCache,
	}, log)

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	must(log, err, "parse trusted proxies")

	// ── 7. Run ────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server := api.NewServer(ctx, api.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  collector,
		Resolver: resolver,
		Sessions: sessions,
		Limiter:  limiter,
		Bypass:   debug,
		Proxies:  proxies,
	}, api.Handlers{
		Health:  health,
		Auth:    authHandler,
		Account: account.NewHandler(accountService, sessions, resolver),
		Events:  event.NewHandler(event.NewService(event.NewPostgresRepository(pool)), resolver),
		Roles:   role.NewHandler(role.NewService(roleRepository), resolver),
	})

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		sessions.Sweep(groupCtx, constants.SessionSweepInterval, log)
		return nil
	})

	// Shut the server down on a signal or when a sibling fails.
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
		return server.Shutdown(constants.ShutdownTimeout)
	})

	if err := group.Wait(); err != nil {
		log.Error("server_stopped_with_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
	)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
