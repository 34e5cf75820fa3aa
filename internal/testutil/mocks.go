package testutil

import (
	"context"
	"strings"
	"sync"

	"cloud.google.com/go/compute/apiv1/computepb"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"

	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
)

// MockInventoryAPI is an in-memory compute inventory. Regional listings are
// keyed by region name; Errors fail a listing by source name, and
// RegionErrors fail one region of a regional listing.
type MockInventoryAPI struct {
	mu sync.Mutex

	Regions     []string
	Networks    []*computepb.Network
	Subnetworks map[string][]*computepb.Subnetwork
	Firewalls   []*computepb.Firewall
	Routers     map[string][]*computepb.Router
	Instances   []*computepb.Instance

	Errors       map[string]error
	RegionErrors map[string]error

	Calls map[string]int
}

// NewMockInventoryAPI creates an empty inventory
func NewMockInventoryAPI() *MockInventoryAPI {
	return &MockInventoryAPI{
		Subnetworks:  make(map[string][]*computepb.Subnetwork),
		Routers:      make(map[string][]*computepb.Router),
		Errors:       make(map[string]error),
		RegionErrors: make(map[string]error),
		Calls:        make(map[string]int),
	}
}

func (m *MockInventoryAPI) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[call]++
	return m.Errors[call]
}

func (m *MockInventoryAPI) regionErr(region string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RegionErrors[region]
}

// CallCount returns how often call was made
func (m *MockInventoryAPI) CallCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[call]
}

func (m *MockInventoryAPI) ListRegions(ctx context.Context, project string) ([]*computepb.Region, error) {
	if err := m.record("regions"); err != nil {
		return nil, err
	}
	out := make([]*computepb.Region, 0, len(m.Regions))
	for _, r := range m.Regions {
		name := r
		out = append(out, &computepb.Region{Name: &name})
	}
	return out, nil
}

func (m *MockInventoryAPI) ListNetworks(ctx context.Context, project string) ([]*computepb.Network, error) {
	if err := m.record("networks"); err != nil {
		return nil, err
	}
	return m.Networks, nil
}

func (m *MockInventoryAPI) ListSubnetworks(ctx context.Context, project, region string) ([]*computepb.Subnetwork, error) {
	if err := m.record("subnetworks"); err != nil {
		return nil, err
	}
	if err := m.regionErr(region); err != nil {
		return nil, err
	}
	return m.Subnetworks[region], nil
}

func (m *MockInventoryAPI) ListFirewalls(ctx context.Context, project string) ([]*computepb.Firewall, error) {
	if err := m.record("firewall_rules"); err != nil {
		return nil, err
	}
	return m.Firewalls, nil
}

func (m *MockInventoryAPI) ListRouters(ctx context.Context, project, region string) ([]*computepb.Router, error) {
	if err := m.record("routers"); err != nil {
		return nil, err
	}
	if err := m.regionErr(region); err != nil {
		return nil, err
	}
	return m.Routers[region], nil
}

func (m *MockInventoryAPI) ListInstances(ctx context.Context, project string) ([]*computepb.Instance, error) {
	if err := m.record("instances"); err != nil {
		return nil, err
	}
	return m.Instances, nil
}

// MockMetricsAPI answers time series queries by metric type
type MockMetricsAPI struct {
	mu sync.Mutex

	Series map[string][]*monitoringpb.TimeSeries
	Errors map[string]error

	Requests []*monitoringpb.ListTimeSeriesRequest
}

// NewMockMetricsAPI creates a metrics API that returns no series
func NewMockMetricsAPI() *MockMetricsAPI {
	return &MockMetricsAPI{
		Series: make(map[string][]*monitoringpb.TimeSeries),
		Errors: make(map[string]error),
	}
}

func (m *MockMetricsAPI) ListTimeSeries(ctx context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)

	metricType := MetricTypeFromFilter(req.GetFilter())
	if err := m.Errors[metricType]; err != nil {
		return nil, err
	}
	return m.Series[metricType], nil
}

// RequestCount returns the number of queries issued
func (m *MockMetricsAPI) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MetricTypeFromFilter extracts X from a metric.type="X" filter
func MetricTypeFromFilter(filter string) string {
	if !strings.HasPrefix(filter, `metric.type="`) || !strings.HasSuffix(filter, `"`) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(filter, `metric.type="`), `"`)
}

// FailingStore wraps a store and fails batch commits for chosen collections.
// FailAfter lets that many commits per collection succeed first.
type FailingStore struct {
	docstore.Store

	mu         sync.Mutex
	FailOn     map[string]error
	FailAfter  int
	commits    map[string]int
	SetError   error
	QueryError error
	PingError  error
}

// NewFailingStore wraps inner
func NewFailingStore(inner docstore.Store) *FailingStore {
	return &FailingStore{
		Store:   inner,
		FailOn:  make(map[string]error),
		commits: make(map[string]int),
	}
}

func (f *FailingStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	if f.SetError != nil {
		return f.SetError
	}
	return f.Store.Set(ctx, collection, id, doc)
}

func (f *FailingStore) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Record, error) {
	if f.QueryError != nil {
		return nil, f.QueryError
	}
	return f.Store.Query(ctx, collection, q)
}

func (f *FailingStore) Ping(ctx context.Context) error {
	if f.PingError != nil {
		return f.PingError
	}
	return f.Store.Ping(ctx)
}

func (f *FailingStore) NewBatch() docstore.Batch {
	return &failingBatch{Batch: f.Store.NewBatch(), store: f}
}

// Commits returns the successful commits recorded for collection
func (f *FailingStore) Commits(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits[collection]
}

type failingBatch struct {
	docstore.Batch
	store      *FailingStore
	collection string
}

func (b *failingBatch) Set(collection, id string, doc docstore.Document) {
	b.collection = collection
	b.Batch.Set(collection, id, doc)
}

func (b *failingBatch) Add(collection string, doc docstore.Document) string {
	b.collection = collection
	return b.Batch.Add(collection, doc)
}

func (b *failingBatch) Commit(ctx context.Context) error {
	b.store.mu.Lock()
	err, fail := b.store.FailOn[b.collection]
	if fail && b.store.commits[b.collection] >= b.store.FailAfter {
		b.store.mu.Unlock()
		return err
	}
	b.store.mu.Unlock()

	if err := b.Batch.Commit(ctx); err != nil {
		return err
	}

	b.store.mu.Lock()
	b.store.commits[b.collection]++
	b.store.mu.Unlock()
	return nil
}
