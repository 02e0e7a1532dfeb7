// Package http serves the JSON API over net/http.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Options configures NewServer.
type Options struct {
	Addr               string
	Service            *services.FinanceService
	Logger             *applog.Logger
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	// Ready backs /readyz; nil always reports ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	svc      *services.FinanceService
	logger   *applog.Logger
	events   *applog.StructuredLogger
	ready    func(context.Context) error
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	timeout  time.Duration
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	detector := security.NewDetector()
	s := &Server{
		svc:      opts.Service,
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		ready:    opts.Ready,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP, detector.DetectSuspiciousRequest),
		detector: detector,
		timeout:  timeout,
		now:      time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.Handle("GET /api/transactions", s.withTimeout(s.handleListTransactions))
	mux.Handle("GET /api/transactions/{id}", s.withTimeout(s.handleGetTransaction))
	mux.Handle("POST /api/transactions", s.withTimeout(s.handleCreateTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.withTimeout(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.withTimeout(s.handleDeleteTransaction))
	mux.Handle("GET /api/budgets", s.withTimeout(s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.withTimeout(s.handleUpsertBudget))
	mux.Handle("GET /api/budgets/status", s.withTimeout(s.handleBudgetStatus))
	mux.Handle("GET /api/summary", s.withTimeout(s.handleSummary))
	mux.Handle("GET /api/insights", s.withTimeout(s.handleInsights))
	mux.Handle("GET /api/dashboard", s.withTimeout(s.handleDashboard))
	mux.HandleFunc("/", handleNotFound)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, ratelimit.WritesOnly, s.onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// withTimeout bounds the storage work a handler may do.
func (s *Server) withTimeout(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeErrorMessage(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Metrics exposes the request counters for diagnostics.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}

// Shutdown stops the limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
