package services

import (
	"context"
	"errors"
	"sync"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	"github.com/LizBugFree/network-monitor-demo/internal/testutil"
)

type fakeClientFactory struct {
	mu        sync.Mutex
	inventory *testutil.MockInventoryAPI
	metrics   *testutil.MockMetricsAPI
	openErr   error
	opened    int
	closed    int
}

func newFakeClientFactory() *fakeClientFactory {
	return &fakeClientFactory{
		inventory: testutil.ScenarioInventory(),
		metrics:   testutil.NewMockMetricsAPI(),
	}
}

type closingInventory struct {
	*testutil.MockInventoryAPI
	f *fakeClientFactory
}

func (c closingInventory) Close() error { return c.f.close() }

type closingMetrics struct {
	*testutil.MockMetricsAPI
	f *fakeClientFactory
}

func (c closingMetrics) Close() error { return c.f.close() }

func (f *fakeClientFactory) NewInventory(ctx context.Context, projectID string) (InventoryClient, error) {
	if err := f.open(); err != nil {
		return nil, err
	}
	return closingInventory{MockInventoryAPI: f.inventory, f: f}, nil
}

func (f *fakeClientFactory) NewMetrics(ctx context.Context, projectID string) (MetricsClient, error) {
	if err := f.open(); err != nil {
		return nil, err
	}
	return closingMetrics{MockMetricsAPI: f.metrics, f: f}, nil
}

func (f *fakeClientFactory) open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opened++
	return nil
}

func (f *fakeClientFactory) close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

type recordingArchive struct {
	objects []string
	err     error
}

func (a *recordingArchive) Put(ctx context.Context, object string, v any) error {
	a.objects = append(a.objects, object)
	return a.err
}

type recordingExporter struct {
	points int
	err    error
}

func (e *recordingExporter) ExportPoints(ctx context.Context, projectID, ts string, points []network.MetricPoint) error {
	e.points += len(points)
	return e.err
}

var errUpstream = errors.New("upstream unavailable")
