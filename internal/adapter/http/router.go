package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/stockledger/internal/adapter/http/handler"
	"github.com/iho/stockledger/internal/adapter/http/middleware"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	"github.com/iho/stockledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	InventoryHandler      *handler.InventoryHandler
	ProductHandler        *handler.ProductHandler
	LedgerHandler         *handler.LedgerHandler
	ReportHandler         *handler.ReportHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	AuthHandler           *handler.AuthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// JWTManager enables bearer authentication. When nil every request is
	// attributed to DefaultActor.
	JWTManager   *auth.JWTManager
	DefaultActor domain.Actor

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	RateLimiter    *middleware.RateLimiter

	Logger             zerolog.Logger
	SSLRedirect        bool
	CORSAllowedOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.SecureHeaders(cfg.Logger, cfg.SSLRedirect))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			var onFailure middleware.AuthFailureRecorder
			if cfg.Metrics != nil {
				onFailure = func(reason string) {
					cfg.Metrics.AuthFailures.WithLabelValues(reason).Inc()
				}
			}
			r.Use(middleware.AuthMiddleware(cfg.JWTManager, onFailure))
		} else {
			r.Use(middleware.DefaultActor(cfg.DefaultActor))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		staff := middleware.RequireRole(domain.RoleStaff)
		manager := middleware.RequireRole(domain.RoleManager)
		admin := middleware.RequireRole(domain.RoleAdmin)

		// Stock movements
		r.With(manager).Post("/movements", cfg.InventoryHandler.Movement)
		r.With(staff).Post("/sales", cfg.InventoryHandler.Sale)
		r.With(manager).Post("/purchases", cfg.InventoryHandler.Purchase)
		r.With(staff).Post("/stock-counts", cfg.InventoryHandler.StockCount)

		// Products
		r.Route("/products", func(r chi.Router) {
			r.With(staff).Get("/", cfg.ProductHandler.List)
			r.With(manager).Post("/", cfg.ProductHandler.Create)
			r.With(staff).Get("/sku/{sku}", cfg.ProductHandler.GetBySKU)
			r.With(staff).Get("/{id}", cfg.ProductHandler.Get)
			r.With(manager).Patch("/{id}", cfg.ProductHandler.Update)
			r.With(manager).Delete("/{id}", cfg.ProductHandler.Deactivate)
		})

		// Ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Use(staff)
			r.Get("/", cfg.LedgerHandler.List)
			r.Get("/history/{sku}", cfg.LedgerHandler.History)
			r.Get("/verify/{sku}", cfg.ReconciliationHandler.Verify)
		})

		// Reconciliation
		r.Route("/reconcile", func(r chi.Router) {
			r.Use(admin)
			r.Get("/report", cfg.ReconciliationHandler.Report)
			r.Get("/{sku}", cfg.ReconciliationHandler.Check)
			r.Post("/{sku}", cfg.ReconciliationHandler.Reconcile)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Use(staff)
			r.Get("/turnover", cfg.ReportHandler.Turnover)
			r.Get("/low-stock", cfg.ReportHandler.LowStock)
			r.Get("/best-sellers", cfg.ReportHandler.BestSellers)
			r.Get("/valuation", cfg.ReportHandler.Valuation)
		})

		// Tokens can only be issued when requests are authenticated.
		if cfg.JWTManager != nil && cfg.AuthHandler != nil {
			r.With(admin).Post("/auth/token", cfg.AuthHandler.IssueToken)
		}
	})

	return r
}
