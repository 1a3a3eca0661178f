// Package store is the optional lead archive: every qualification submission
// that reaches the email dispatcher is written to Postgres together with the
// outcome of the send. The archive is write-only from the service's point of
// view; it is read by humans and BI tooling, never by the request path.
//
// Dependency rule: store imports qualify only. It never imports api or email.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store holds the connection pool. The operation file (submissions.go)
// attaches methods to this type.
type Store struct {
	pool *sql.DB
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (see Open) before calling New.
func New(pool *sql.DB) *Store {
	return &Store{pool: pool}
}

// Open opens the connection pool and verifies the database is reachable.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// One insert per submission; a small pool is plenty.
	pool.SetMaxOpenConns(5)
	pool.SetMaxIdleConns(2)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, pool *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("store: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, pool, "migrations"); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Ping reports whether the archive database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.PingContext(ctx)
}

// gooseLogger routes goose output through slog. Fatalf only logs: goose also
// returns the error, and exiting here would skip graceful shutdown.
type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...), "component", "goose")
}

func (g gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...), "component", "goose")
}
