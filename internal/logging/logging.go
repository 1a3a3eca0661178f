// Package logging builds the process-wide slog.Logger: pretty text in
// development, JSON in production, and an optional Sentry fan-out so that
// error-level records (failed email dispatches in particular) raise issues.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config selects the handler set.
type Config struct {
	Env       string // "production" switches to JSON at info level
	SentryDSN string // empty disables Sentry
}

// New returns a logger writing to w. When a Sentry DSN is configured the
// returned flush function must be called before the process exits.
func New(w io.Writer, cfg Config) (*slog.Logger, func()) {
	var base slog.Handler
	if cfg.Env == "production" {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	noop := func() {}
	if cfg.SentryDSN == "" {
		return slog.New(base), noop
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Env,
		EnableLogs:  true,
	}); err != nil {
		logger := slog.New(base)
		logger.Error("sentry init failed, logging to stdout only", "error", err)
		return logger, noop
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	flush := func() { sentry.Flush(sentryFlushTimeout) }
	return slog.New(newFanout(base, sentryHandler)), flush
}
