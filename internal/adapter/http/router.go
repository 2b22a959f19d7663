package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mycelium/receivables/internal/adapter/http/handler"
	"github.com/mycelium/receivables/internal/adapter/http/middleware"
	"github.com/mycelium/receivables/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler    *handler.LedgerHandler
	WorkflowHandler  *handler.WorkflowHandler
	DebtorHandler    *handler.DebtorHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logging          *middleware.LoggingMiddleware
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Logging != nil {
		r.Use(cfg.Logging.Wrap)
	}
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Customer ledger
		r.Route("/customers/{id}", func(r chi.Router) {
			r.Get("/ledger", cfg.LedgerHandler.GetLedger)
			r.Post("/ledger", cfg.LedgerHandler.CreateEntry)
			r.Get("/balance", cfg.LedgerHandler.GetBalance)
			r.Get("/consistency", cfg.DebtorHandler.CheckConsistency)
		})

		// Ledger entries and projections
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/debtors", cfg.DebtorHandler.List)
			r.Put("/entries/{id}", cfg.LedgerHandler.UpdateEntry)
			r.Delete("/entries/{id}", cfg.LedgerHandler.DeleteEntry)
			r.Post("/projections/{id}/rebuild", cfg.LedgerHandler.RebuildProjection)
		})

		// Sales workflow posting surface
		r.Route("/workflows/sales/entries", func(r chi.Router) {
			r.Post("/", cfg.WorkflowHandler.CreateEntry)
			r.Put("/{id}", cfg.WorkflowHandler.UpdateEntry)
		})
	})

	return r
}
