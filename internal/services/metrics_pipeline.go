package services

import (
	"context"
	"time"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/metrics"
	"github.com/LizBugFree/network-monitor-demo/internal/providers"
)

// MetricsCycleResult is the outcome of a successful metrics cycle
type MetricsCycleResult struct {
	Timestamp             string         `json:"timestamp"`
	ProjectID             string         `json:"project_id"`
	DocumentID            string         `json:"document_id"`
	DurationMinutes       int            `json:"duration_minutes"`
	TotalMetricsCollected int            `json:"total_metrics_collected"`
	MetricsBreakdown      map[string]int `json:"metrics_breakdown"`
	FailedSources         []string       `json:"failed_sources"`
	Commits               map[string]int `json:"-"`
	History               []Transition   `json:"-"`
}

// MetricsPipeline runs collect, aggregate and persist for network metrics
type MetricsPipeline struct {
	clients  ClientFactory
	writer   *SnapshotWriter
	exporter MetricExporter
	opts     PipelineOptions
	logger   *logger.Logger
	now      func() time.Time
}

// NewMetricsPipeline creates a metrics pipeline
func NewMetricsPipeline(clients ClientFactory, writer *SnapshotWriter, opts PipelineOptions, log *logger.Logger) *MetricsPipeline {
	return &MetricsPipeline{
		clients: clients,
		writer:  writer,
		opts:    opts,
		logger:  log.Component("metrics_pipeline"),
		now:     time.Now,
	}
}

// WithExporter enables exporting every persisted point
func (p *MetricsPipeline) WithExporter(e MetricExporter) *MetricsPipeline {
	p.exporter = e
	return p
}

// Run executes one metrics cycle over the last durationMinutes, clamped to
// the supported window
func (p *MetricsPipeline) Run(ctx context.Context, projectID string, durationMinutes int) (*MetricsCycleResult, error) {
	cycle := NewCycle(PipelineMetrics)
	durationMinutes = providers.ClampDuration(durationMinutes)
	log := p.logger.With("project_id", projectID)
	defer func() {
		metrics.RecordCycle(PipelineMetrics, string(cycle.State()), cycle.Elapsed())
	}()

	if projectID == "" {
		err := apperrors.BadRequest(MissingProjectMessage)
		_ = cycle.Fail(err)
		return nil, err
	}

	if p.opts.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.CycleTimeout)
		defer cancel()
	}

	client, err := p.clients.NewMetrics(ctx, projectID)
	if err != nil {
		_ = cycle.Fail(err)
		log.ErrorWithErr(err, "Failed to open monitoring client")
		return nil, err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.WarnWithErr(err, "Failed to close monitoring client")
		}
	}()

	if err := cycle.Advance(StateCollecting); err != nil {
		return nil, err
	}
	snapshot := network.NewMetricsSnapshot(projectID, p.now(), durationMinutes)
	collector := providers.NewMetricsCollector(client, projectID, p.opts.Parallel, p.logger)
	families, failed := collector.Collect(ctx, snapshot.Timestamp(), durationMinutes)
	snapshot.Families = families
	if failed == nil {
		failed = []string{}
	}

	if err := cycle.Advance(StateAggregating); err != nil {
		return nil, err
	}
	breakdown := snapshot.Breakdown()
	total := snapshot.Total()
	metrics.SetRecordsCollected(CollectionNetworkMetrics, total)

	if err := cycle.Advance(StatePersisting); err != nil {
		return nil, err
	}
	report, err := p.writer.WriteMetricsSnapshot(ctx, snapshot)
	if err != nil {
		_ = cycle.Fail(err)
		log.ErrorWithErr(err, "Metrics cycle failed")
		return nil, err
	}

	if p.exporter != nil {
		if err := p.exporter.ExportPoints(ctx, projectID, snapshot.TimestampString(), snapshot.AllPoints()); err != nil {
			log.WarnWithErr(err, "Metric export failed")
		}
	}

	if err := cycle.Advance(StateDone); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"timestamp":        snapshot.TimestampString(),
		"duration_minutes": durationMinutes,
		"total_metrics":    total,
		"failed_sources":   failed,
		"duration_ms":      cycle.Elapsed().Milliseconds(),
	}).Info("Metrics cycle completed")

	return &MetricsCycleResult{
		Timestamp:             snapshot.TimestampString(),
		ProjectID:             projectID,
		DocumentID:            snapshot.DocumentID(),
		DurationMinutes:       durationMinutes,
		TotalMetricsCollected: total,
		MetricsBreakdown:      breakdown,
		FailedSources:         failed,
		Commits:               report.Commits,
		History:               cycle.History(),
	}, nil
}
