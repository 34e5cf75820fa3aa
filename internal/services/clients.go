package services

import (
	"context"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/providers"
)

// InventoryClient is a per-cycle inventory handle
type InventoryClient interface {
	providers.InventoryAPI
	Close() error
}

// MetricsClient is a per-cycle metrics handle
type MetricsClient interface {
	providers.MetricsAPI
	Close() error
}

// ClientFactory opens the upstream handles of one cycle
type ClientFactory interface {
	NewInventory(ctx context.Context, projectID string) (InventoryClient, error)
	NewMetrics(ctx context.Context, projectID string) (MetricsClient, error)
}

// SnapshotArchiver stores a full snapshot as one object
type SnapshotArchiver interface {
	Put(ctx context.Context, object string, v any) error
}

// MetricExporter ships metric points to an analytics sink
type MetricExporter interface {
	ExportPoints(ctx context.Context, projectID, collectionTimestamp string, points []network.MetricPoint) error
}

// GCPClientFactory opens Compute Engine and Cloud Monitoring clients
type GCPClientFactory struct {
	cfg config.GCPConfig
}

// NewGCPClientFactory creates a factory from GCP settings
func NewGCPClientFactory(cfg config.GCPConfig) *GCPClientFactory {
	return &GCPClientFactory{cfg: cfg}
}

func (f *GCPClientFactory) credentials(projectID string) providers.GCPCredentials {
	return providers.GCPCredentials{ProjectID: projectID, CredentialsFile: f.cfg.CredentialsFile}
}

func (f *GCPClientFactory) callOptions() providers.CallOptions {
	return providers.CallOptions{
		Timeout:        f.cfg.CallTimeout,
		RequestsPerSec: f.cfg.RequestsPerSec,
		Burst:          f.cfg.Burst,
	}
}

// NewInventory opens the compute clients
func (f *GCPClientFactory) NewInventory(ctx context.Context, projectID string) (InventoryClient, error) {
	inv, err := providers.NewGCPInventory(ctx, f.credentials(projectID), f.callOptions())
	if err != nil {
		return nil, apperrors.ProviderAPI("compute", err)
	}
	return inv, nil
}

// NewMetrics opens the monitoring client
func (f *GCPClientFactory) NewMetrics(ctx context.Context, projectID string) (MetricsClient, error) {
	mon, err := providers.NewGCPMonitoring(ctx, f.credentials(projectID), f.callOptions())
	if err != nil {
		return nil, apperrors.ProviderAPI("monitoring", err)
	}
	return mon, nil
}
