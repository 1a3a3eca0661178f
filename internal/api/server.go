// Package api implements the HTTP layer of the qualification form service.
// Handlers are methods on *Server. Each handler file is responsible for one
// route group and only uses the dependencies it needs.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nyashahama/buildquick-qualify/internal/email"
	"github.com/nyashahama/buildquick-qualify/internal/ratelimit"
	"github.com/nyashahama/buildquick-qualify/internal/store"
	"github.com/nyashahama/buildquick-qualify/internal/web"
)

// SendContactPath is the submission endpoint the form posts to.
const SendContactPath = "/api/send-contact"

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// AllowedOrigin is the only cross-origin caller accepted in production.
	AllowedOrigin string

	// Provider names the email provider; it is stored with archived leads.
	Provider string

	// ContactEmail is the public address shown in the page footer.
	ContactEmail string

	// TrustProxyHeaders takes the client IP from X-Real-IP / X-Forwarded-For.
	// Enable only behind a proxy that overwrites those headers; otherwise a
	// client can pick its own rate-limit key.
	TrustProxyHeaders bool
}

// Archiver records submissions after the dispatch attempt. *store.Store
// satisfies it.
type Archiver interface {
	RecordSubmission(ctx context.Context, p store.RecordParams) (uuid.UUID, error)
}

// Server holds all shared dependencies.
type Server struct {
	// mailer formats and sends the notification email.
	mailer email.Sender

	// archive is optional; nil disables the lead archive.
	archive Archiver

	// limiter is optional; nil disables submission rate limiting.
	limiter ratelimit.Limiter

	page   *web.Page
	router http.Handler

	// archiveWG tracks background archive writes.
	archiveWG sync.WaitGroup

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. archive and
// limiter may be nil.
func NewServer(
	mailer email.Sender,
	archive Archiver,
	limiter ratelimit.Limiter,
	cfg Config,
	logger *slog.Logger,
) (*Server, error) {
	page, err := web.NewPage(SendContactPath, cfg.ContactEmail)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	s := &Server{
		mailer:  mailer,
		archive: archive,
		limiter: limiter,
		page:    page,
		cfg:     cfg,
		logger:  logger,
	}
	s.router = s.routes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Wait blocks until background lead archive writes have finished. Call it
// after the HTTP server has stopped accepting requests.
func (s *Server) Wait() {
	s.archiveWG.Wait()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	if s.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", s.handleReady)

	// ── Form UI ───────────────────────────────────────────────────────────────
	r.Method(http.MethodGet, "/", s.page)
	r.Handle("/assets/*", web.Assets())

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/send-contact", s.handleSendContact)
	})

	return r
}

// pinger is implemented by archives that can report connectivity.
// *store.Store does.
type pinger interface {
	Ping(ctx context.Context) error
}

// handleReady reports 503 when a configured lead archive is unreachable.
// Submissions still work in that state; the probe only surfaces it.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.archive.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness: lead archive unreachable", "error", err, logField(r))
			respondErr(w, http.StatusServiceUnavailable, "lead archive unreachable")
			return
		}
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
