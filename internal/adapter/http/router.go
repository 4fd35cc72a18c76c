package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/assetledger/internal/adapter/http/handler"
	"github.com/iho/assetledger/internal/adapter/http/middleware"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AssetHandler    *handler.AssetHandler
	PostingHandler  *handler.PostingHandler
	LedgerHandler   *handler.LedgerHandler
	PayablesHandler *handler.PayablesHandler
	ProjectsHandler *handler.ProjectsHandler
	HealthHandler   *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// TokenVerifier enables bearer auth on /api/v1 when set.
	TokenVerifier middleware.TokenVerifier
	RateLimiter   *middleware.RateLimiter
	Logger        zerolog.Logger

	// MetricsHandler serves /metrics; nil uses the default registry.
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// Role checks only apply when auth is enabled.
	require := func(role domain.Role) func(http.Handler) http.Handler {
		if cfg.TokenVerifier == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RequireRole(role)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
			r.Use(middleware.RequireRole(domain.RoleViewer))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Asset register per entity
		r.Route("/entities/{entity}", func(r chi.Router) {
			r.Get("/assets", cfg.AssetHandler.Register)
			r.Get("/kpis", cfg.AssetHandler.KPIs)
			r.Get("/depreciation", cfg.AssetHandler.Preview)
			r.Get("/disposals", cfg.AssetHandler.Disposals)
			r.Get("/integrity", cfg.PostingHandler.Integrity)
			r.With(require(domain.RoleController)).
				Post("/depreciation/{period}/post", cfg.PostingHandler.Post)
		})

		r.Route("/assets/{id}", func(r chi.Router) {
			r.Get("/schedule", cfg.AssetHandler.Schedule)
			r.Get("/disposal", cfg.AssetHandler.Disposal)
		})

		// Journal
		r.Route("/journal", func(r chi.Router) {
			r.Get("/", cfg.LedgerHandler.List)
			r.Get("/{id}", cfg.LedgerHandler.Get)
		})
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)

		// Payables
		r.Route("/payables", func(r chi.Router) {
			r.Get("/invoices", cfg.PayablesHandler.ListInvoices)
			r.Get("/kpis", cfg.PayablesHandler.KPIs)

			r.Group(func(r chi.Router) {
				r.Use(require(domain.RoleClerk))
				r.Post("/invoices/approve", cfg.PayablesHandler.Approve)
				r.Post("/invoices/needs-info", cfg.PayablesHandler.NeedsInfo)
				r.Post("/invoices/reject", cfg.PayablesHandler.Reject)
				r.Post("/payments/schedule", cfg.PayablesHandler.SchedulePayments)
				r.Post("/payments/execute", cfg.PayablesHandler.ExecutePayments)
			})
		})

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/kpis", cfg.ProjectsHandler.KPIs)
			r.Get("/portfolio", cfg.ProjectsHandler.Portfolio)

			r.With(require(domain.RoleClerk)).Post("/timesheets/approve", cfg.ProjectsHandler.ApproveTimesheets)
			r.With(require(domain.RoleClerk)).Post("/expenses/approve", cfg.ProjectsHandler.ApproveExpenses)
			r.With(require(domain.RoleController)).Post("/billing-run", cfg.ProjectsHandler.BillingRun)
		})
	})

	return r
}
