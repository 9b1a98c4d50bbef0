// Package http serves the household derivations and record creation as a
// JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"orcamento/internal/cache"
	"orcamento/internal/core"
	applog "orcamento/internal/log"
	"orcamento/internal/middleware/ratelimit"
	"orcamento/internal/middleware/security"
	"orcamento/internal/middleware/trace"
	"orcamento/internal/services"
)

// Deriver computes the derived views served by the API.
type Deriver interface {
	Dashboard(ctx context.Context, now time.Time, member core.MemberID) (services.Dashboard, error)
	Summary(ctx context.Context, start, end core.Date, member core.MemberID) (core.Summary, error)
	MonthTransactions(ctx context.Context, year, month int) ([]core.Transaction, error)
	Projection(ctx context.Context, now time.Time, horizon int) ([]core.MonthProjection, error)
	Cards(ctx context.Context, now time.Time) ([]core.CardInvoice, error)
	Goals(ctx context.Context, now time.Time) ([]core.GoalNeed, error)
	Horizon() int
	CacheStats() cache.Stats
}

// Recorder persists new records.
type Recorder interface {
	RecordTransaction(ctx context.Context, draft core.Transaction, installments int) ([]core.Transaction, error)
	AddRecurringItem(ctx context.Context, item core.RecurringItem, shareEqually bool) (core.RecurringItem, error)
}

// Options configures a Server.
type Options struct {
	Deriver            Deriver
	Recorder           Recorder
	Ready              func(context.Context) error
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	deriver  Deriver
	recorder Recorder
	ready    func(context.Context) error
	limiter  *ratelimit.Limiter
	metrics  *Metrics
	now      func() time.Time
	logger   *slog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	appLogger := opts.Logger
	if appLogger == nil {
		appLogger = applog.New(applog.Config{Handler: slog.Default().Handler()})
	}
	appLogger = appLogger.WithComponent(applog.ComponentHTTP)
	logger := appLogger.Logger

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		deriver:  opts.Deriver,
		recorder: opts.Recorder,
		ready:    opts.Ready,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		metrics:  NewMetrics(opts.Deriver),
		now:      time.Now,
		logger:   logger,
	}

	clientIP := security.NewClientIP()
	limitWrites := s.limiter.Middleware(clientIP.Extract, s.onRateLimited)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/projection", s.handleProjection)
	mux.HandleFunc("GET /api/cards", s.handleCards)
	mux.HandleFunc("GET /api/goals", s.handleGoals)
	mux.Handle("POST /api/transactions", limitWrites(http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("POST /api/recurring", limitWrites(http.HandlerFunc(s.handleCreateRecurring)))
	mux.HandleFunc("POST /api/splits/equal", s.handleEqualSplit)

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = applog.Middleware(appLogger)(handler)
	handler = trace.NewMiddleware(clientIP.Extract, s.metrics.ObserveRequest, appLogger.WithComponent(applog.ComponentTrace).Logger).Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.rateLimited.Inc()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", applog.Err(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
