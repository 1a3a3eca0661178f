package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyashahama/buildquick-qualify/internal/api"
	"github.com/nyashahama/buildquick-qualify/internal/config"
	"github.com/nyashahama/buildquick-qualify/internal/email"
	"github.com/nyashahama/buildquick-qualify/internal/listener"
	"github.com/nyashahama/buildquick-qualify/internal/logging"
	"github.com/nyashahama/buildquick-qualify/internal/ratelimit"
	"github.com/nyashahama/buildquick-qualify/internal/store"
)

func main() {
	// ── Config ────────────────────────────────────────────────────────────────
	// Loaded before the logger so SENTRY_DSN and ENV can shape it. A parse
	// failure still gets logged through a plain logger.
	cfg, cfgErr := config.Load()

	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development, errors to Sentry when
	// a DSN is set.
	logCfg := logging.Config{Env: os.Getenv("ENV")}
	if cfg != nil {
		logCfg = logging.Config{Env: cfg.Env, SentryDSN: cfg.SentryDSN}
	}
	logger, flush := logging.New(os.Stdout, logCfg)
	slog.SetDefault(logger)

	err := cfgErr
	if err != nil {
		err = fmt.Errorf("config: %w", err)
	} else {
		err = run(cfg, logger)
	}

	if err != nil {
		logger.Error("fatal", "error", err)
		flush()
		os.Exit(1)
	}
	flush()
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"env", cfg.Env,
		"port", cfg.Port,
		"email_provider", cfg.EmailProvider,
	)

	// Root context cancelled by OS signal. Startup dials and the server both
	// respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Lead archive (optional) ───────────────────────────────────────────────
	var archive api.Archiver
	if cfg.DatabaseURL != "" {
		pool, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()

		if err := store.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		archive = store.New(pool)
		logger.Info("lead archive enabled")
	} else {
		logger.Info("lead archive disabled: DATABASE_URL not set")
	}

	// ── Rate limiting (optional) ──────────────────────────────────────────────
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		client, err := ratelimit.Open(ctx, cfg.RedisURL, 5, time.Second)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()

		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow)
		logger.Info("submission rate limit enabled",
			"max", cfg.RateLimitMax,
			"window", cfg.RateLimitWindow,
		)
	} else {
		logger.Info("submission rate limit disabled: REDIS_URL not set")
	}

	// ── Email ─────────────────────────────────────────────────────────────────
	addr := email.Addresses{From: cfg.EmailFrom, To: cfg.EmailTo}

	var mailer email.Sender
	switch cfg.EmailProvider {
	case config.ProviderPostmark:
		mailer = email.NewPostmarkClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, addr)
	default:
		mailer = email.NewResendClient(cfg.ResendAPIKey, addr)
	}
	if cfg.EmailCredentialMissing() {
		// Submissions will fail at the provider and return the generic 500.
		logger.Warn("email provider credential not set", "provider", cfg.EmailProvider)
	}

	// ── HTTP + gRPC health ────────────────────────────────────────────────────
	srv, err := api.NewServer(
		mailer,
		archive,
		limiter,
		api.Config{
			Env:               cfg.Env,
			AllowedOrigin:     cfg.AllowedOrigin,
			Provider:          cfg.EmailProvider,
			ContactEmail:      cfg.ContactEmail,
			TrustProxyHeaders: cfg.TrustProxyHeaders,
		},
		logger,
	)
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	serveErr := listener.New(srv, logger).Serve(ctx, l, cfg.ShutdownTimeout)

	// Archive writes run after the response; let them land before the pool
	// is closed.
	srv.Wait()

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}

	logger.Info("shutdown complete")
	return nil
}
