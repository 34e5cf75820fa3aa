package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
	"github.com/LizBugFree/network-monitor-demo/internal/testutil"
)

type stubNetworkRunner struct {
	res     *services.NetworkCycleResult
	err     error
	project string
	ctxErr  error
}

func (s *stubNetworkRunner) Run(ctx context.Context, projectID string) (*services.NetworkCycleResult, error) {
	s.project = projectID
	s.ctxErr = ctx.Err()
	return s.res, s.err
}

type stubMetricsRunner struct {
	res      *services.MetricsCycleResult
	err      error
	duration int
}

func (s *stubMetricsRunner) Run(ctx context.Context, projectID string, durationMinutes int) (*services.MetricsCycleResult, error) {
	s.duration = durationMinutes
	return s.res, s.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestCollectNetwork(t *testing.T) {
	runner := &stubNetworkRunner{res: &services.NetworkCycleResult{
		Timestamp:          "20260101_120000",
		ResourcesCollected: network.ResourceCounts{Networks: 2, Subnetworks: 3, FirewallRules: 1},
		Insights:           &network.Insights{},
		FailedSources:      []string{},
	}}
	h := NewCollectHandler(runner, &stubMetricsRunner{}, testutil.ProjectID, testutil.NewTestLogger())

	rec := httptest.NewRecorder()
	h.CollectNetwork(rec, httptest.NewRequest(http.MethodPost, "/collect_network_data", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if runner.project != testutil.ProjectID {
		t.Errorf("project = %q", runner.project)
	}
	body := decodeBody(t, rec)
	if body["status"] != "success" || body["timestamp"] != "20260101_120000" {
		t.Errorf("body = %v", body)
	}
	counts, _ := body["resources_collected"].(map[string]any)
	if counts["networks"] != float64(2) || counts["subnetworks"] != float64(3) {
		t.Errorf("resources_collected = %v", counts)
	}
	if _, ok := body["failed_sources"].([]any); !ok {
		t.Errorf("failed_sources = %v, want empty array", body["failed_sources"])
	}
}

func TestCollectNetwork_Errors(t *testing.T) {
	tests := []struct {
		name       string
		projectID  string
		runErr     error
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{
			name:       "missing project",
			projectID:  "",
			wantStatus: http.StatusBadRequest,
			wantKey:    "error",
			wantValue:  "Project ID not found",
		},
		{
			name:       "cycle failure",
			projectID:  testutil.ProjectID,
			runErr:     errors.New("store unavailable"),
			wantStatus: http.StatusInternalServerError,
			wantKey:    "status",
			wantValue:  "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubNetworkRunner{err: tt.runErr}
			h := NewCollectHandler(runner, &stubMetricsRunner{}, tt.projectID, testutil.NewTestLogger())

			rec := httptest.NewRecorder()
			h.CollectNetwork(rec, httptest.NewRequest(http.MethodGet, "/collect_network_data", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if body[tt.wantKey] != tt.wantValue {
				t.Errorf("body[%s] = %v, want %q", tt.wantKey, body[tt.wantKey], tt.wantValue)
			}
			if tt.runErr != nil && body["error"] != tt.runErr.Error() {
				t.Errorf("error = %v", body["error"])
			}
		})
	}
}

func TestCollectNetwork_IgnoresClientCancel(t *testing.T) {
	runner := &stubNetworkRunner{res: &services.NetworkCycleResult{Insights: &network.Insights{}}}
	h := NewCollectHandler(runner, &stubMetricsRunner{}, testutil.ProjectID, testutil.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/collect_network_data", nil).WithContext(ctx)
	h.CollectNetwork(httptest.NewRecorder(), req)

	if runner.ctxErr != nil {
		t.Errorf("cycle context err = %v, want nil", runner.ctxErr)
	}
}

func TestCollectMetrics_Duration(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 60},
		{"?duration=30", 30},
		{"?duration=1", 5},
		{"?duration=5000", 1440},
		{"?duration=abc", 60},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			runner := &stubMetricsRunner{res: &services.MetricsCycleResult{
				Timestamp:        "20260101_120000",
				MetricsBreakdown: map[string]int{"vpc_flow": 4},
			}}
			h := NewCollectHandler(&stubNetworkRunner{}, runner, testutil.ProjectID, testutil.NewTestLogger())

			rec := httptest.NewRecorder()
			h.CollectMetrics(rec, httptest.NewRequest(http.MethodPost, "/collect_network_metrics"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if runner.duration != tt.want {
				t.Errorf("duration = %d, want %d", runner.duration, tt.want)
			}
		})
	}
}

func TestCollectMetrics_Failure(t *testing.T) {
	runner := &stubMetricsRunner{err: errors.New("boom")}
	h := NewCollectHandler(&stubNetworkRunner{}, runner, testutil.ProjectID, testutil.NewTestLogger())

	rec := httptest.NewRecorder()
	h.CollectMetrics(rec, httptest.NewRequest(http.MethodPost, "/collect_network_metrics", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "failed" || body["error"] != "boom" {
		t.Errorf("body = %v", body)
	}
}

func TestSnapshotHandler_LatestInventory(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	for _, ts := range []string{"20260101_100000", "20260101_120000"} {
		err := store.Set(ctx, services.CollectionNetworkInventory, testutil.ProjectID+"_"+ts, docstore.Document{
			docstore.FieldTimestamp: ts,
			docstore.FieldProjectID: testutil.ProjectID,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	h := NewSnapshotHandler(services.NewSnapshotReader(store), testutil.ProjectID, testutil.NewTestLogger())

	rec := httptest.NewRecorder()
	h.LatestInventory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["id"] != testutil.ProjectID+"_20260101_120000" {
		t.Errorf("data = %v", data)
	}

	rec = httptest.NewRecorder()
	h.LatestMetricsSummary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/summaries/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404", rec.Code)
	}
}

func TestSnapshotHandler_StoreFailure(t *testing.T) {
	failing := testutil.NewFailingStore(docstore.NewMemoryStore())
	failing.QueryError = apperrors.ServiceUnavailable("offline")
	h := NewSnapshotHandler(services.NewSnapshotReader(failing), testutil.ProjectID, testutil.NewTestLogger())

	rec := httptest.NewRecorder()
	h.LatestInventory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/latest", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	failing := testutil.NewFailingStore(docstore.NewMemoryStore())
	h := NewHealthHandler(failing, testutil.NewTestLogger())

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	failing.PingError = errors.New("down")
	rec = httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failed ping = %d", rec.Code)
	}
}

func TestSnapshotHandler_CycleRecords(t *testing.T) {
	store := docstore.NewMemoryStore()
	writer := services.NewSnapshotWriter(store, services.DefaultBatchSize, testutil.NewTestLogger())
	m := network.NewMetricsSnapshot(testutil.ProjectID, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), 60)
	m.Families = []network.FamilyPoints{{Family: network.FamilyNAT, Points: []network.MetricPoint{{MetricType: "a"}, {MetricType: "b"}}}}
	if _, err := writer.WriteMetricsSnapshot(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	h := NewSnapshotHandler(services.NewSnapshotReader(store), testutil.ProjectID, testutil.NewTestLogger())
	r := chi.NewRouter()
	r.Get("/api/v1/collections/{collection}/records", h.CycleRecords)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCount  float64
	}{
		{"metric points by collection timestamp", "/api/v1/collections/network-metrics/records?timestamp=2024-03-01T12:00:00.000000Z", http.StatusOK, 2},
		{"other cycle", "/api/v1/collections/network-metrics/records?timestamp=2024-03-01T11:00:00.000000Z", http.StatusOK, 0},
		{"missing timestamp", "/api/v1/collections/network-metrics/records", http.StatusBadRequest, 0},
		{"summary collection", "/api/v1/collections/network-inventory/records?timestamp=x", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			data, _ := decodeBody(t, rec)["data"].(map[string]any)
			if data["count"] != tt.wantCount {
				t.Errorf("count = %v, want %v", data["count"], tt.wantCount)
			}
		})
	}
}
