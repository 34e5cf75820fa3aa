package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/LizBugFree/network-monitor-demo/internal/api/handlers"
	"github.com/LizBugFree/network-monitor-demo/internal/api/middleware"
	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/metrics"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Collect  *handlers.CollectHandler
	Snapshot *handlers.SnapshotHandler
}

func New(cfg *config.Config, log *logger.Logger, limiter *middleware.RateLimiter, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(middleware.DashboardCORS(cfg.Server.FrontendURL))

	// Probes and metrics
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	// Collection triggers
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Get("/collect_network_data", h.Collect.CollectNetwork)
		r.Post("/collect_network_data", h.Collect.CollectNetwork)
		r.Get("/collect_network_metrics", h.Collect.CollectMetrics)
		r.Post("/collect_network_metrics", h.Collect.CollectMetrics)

		r.Post("/api/v1/collect/network", h.Collect.CollectNetwork)
		r.Post("/api/v1/collect/metrics", h.Collect.CollectMetrics)
	})

	// Dashboard reads
	r.Get("/api/v1/snapshots/latest", h.Snapshot.LatestInventory)
	r.Get("/api/v1/metrics/summaries/latest", h.Snapshot.LatestMetricsSummary)
	r.Get("/api/v1/collections/{collection}/records", h.Snapshot.CycleRecords)

	return r
}
