package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LizBugFree/network-monitor-demo/internal/api/handlers"
	"github.com/LizBugFree/network-monitor-demo/internal/api/middleware"
	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
	"github.com/LizBugFree/network-monitor-demo/internal/testutil"
)

type networkRunner struct{}

func (networkRunner) Run(ctx context.Context, projectID string) (*services.NetworkCycleResult, error) {
	return &services.NetworkCycleResult{Insights: &network.Insights{}}, nil
}

type metricsRunner struct{}

func (metricsRunner) Run(ctx context.Context, projectID string, durationMinutes int) (*services.MetricsCycleResult, error) {
	return &services.MetricsCycleResult{DurationMinutes: durationMinutes}, nil
}

func newTestRouter(t *testing.T, burst int) http.Handler {
	t.Helper()
	cfg := &config.Config{Server: config.ServerConfig{FrontendURL: "http://localhost:3000"}}
	log := testutil.NewTestLogger()
	store := docstore.NewMemoryStore()
	return New(cfg, log, middleware.NewRateLimiter(0.001, burst), &Handlers{
		Health:   handlers.NewHealthHandler(store, log),
		Collect:  handlers.NewCollectHandler(networkRunner{}, metricsRunner{}, testutil.ProjectID, log),
		Snapshot: handlers.NewSnapshotHandler(services.NewSnapshotReader(store), testutil.ProjectID, log),
	})
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/collect_network_data", http.StatusOK},
		{http.MethodPost, "/collect_network_data", http.StatusOK},
		{http.MethodPost, "/collect_network_metrics?duration=30", http.StatusOK},
		{http.MethodPost, "/api/v1/collect/network", http.StatusOK},
		{http.MethodPost, "/api/v1/collect/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/snapshots/latest", http.StatusNotFound},
		{http.MethodGet, "/api/v1/metrics/summaries/latest", http.StatusNotFound},
		{http.MethodGet, "/api/v1/collections/network-metrics/records?timestamp=2024-03-01T12:00:00.000000Z", http.StatusOK},
		{http.MethodGet, "/api/v1/collections/metrics-summaries/records?timestamp=x", http.StatusNotFound},
		{http.MethodDelete, "/collect_network_data", http.StatusMethodNotAllowed},
	}

	r := newTestRouter(t, 100)
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestRoutes_TriggersAreRateLimited(t *testing.T) {
	r := newTestRouter(t, 1)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/collect_network_data", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first trigger = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/collect_network_data", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second trigger = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, probes must not be limited", rec.Code)
	}
}
