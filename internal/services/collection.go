package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/providers"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
)

// Collection bundles both pipelines and the summary reader over one store
type Collection struct {
	Network *NetworkPipeline
	Metrics *MetricsPipeline
	Reader  *SnapshotReader

	closers []func() error
}

// NewCollection wires the pipelines from configuration. The snapshot archive
// and metric export sinks are opened only when configured.
func NewCollection(ctx context.Context, cfg *config.Config, store docstore.Store, clients ClientFactory, log *logger.Logger) (*Collection, error) {
	opts := PipelineOptions{
		Parallel:          cfg.Collector.Parallel,
		RegionConcurrency: cfg.Collector.RegionConcurrency,
		CycleTimeout:      cfg.Collector.CycleTimeout,
	}
	writer := NewSnapshotWriter(store, cfg.Collector.BatchSize, log)

	c := &Collection{
		Network: NewNetworkPipeline(clients, writer, opts, log),
		Metrics: NewMetricsPipeline(clients, writer, opts, log),
		Reader:  NewSnapshotReader(store),
	}

	creds := providers.GCPCredentials{ProjectID: cfg.GCP.ProjectID, CredentialsFile: cfg.GCP.CredentialsFile}

	if cfg.Archive.Bucket != "" {
		archive, err := providers.NewGCSArchive(ctx, creds, cfg.Archive.Bucket)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "failed to open snapshot archive", http.StatusInternalServerError)
		}
		c.Network.WithArchive(archive)
		c.closers = append(c.closers, archive.Close)
		log.With("bucket", cfg.Archive.Bucket).Info("Snapshot archive enabled")
	}

	if cfg.Export.BigQueryDataset != "" {
		exporter, err := providers.NewBigQueryExporter(ctx, creds, cfg.Export.BigQueryDataset, cfg.Export.BigQueryTable)
		if err != nil {
			_ = c.Close()
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "failed to open metric export", http.StatusInternalServerError)
		}
		c.Metrics.WithExporter(exporter)
		c.closers = append(c.closers, exporter.Close)
		log.WithFields(map[string]interface{}{
			"dataset": cfg.Export.BigQueryDataset,
			"table":   cfg.Export.BigQueryTable,
		}).Info("Metric export enabled")
	}

	return c, nil
}

// Close releases the optional sinks
func (c *Collection) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
