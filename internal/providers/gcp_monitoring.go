package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/metrics"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/utils"
)

// Query window bounds, in minutes
const (
	DefaultDurationMinutes = 60
	MinDurationMinutes     = 5
	MaxDurationMinutes     = 1440
)

// AlignmentPeriod is the per-series aggregation window of every query
const AlignmentPeriod = 300 * time.Second

// ClampDuration bounds a query window to [MinDurationMinutes, MaxDurationMinutes]
func ClampDuration(minutes int) int {
	if minutes < MinDurationMinutes {
		return MinDurationMinutes
	}
	if minutes > MaxDurationMinutes {
		return MaxDurationMinutes
	}
	return minutes
}

// ParseDuration reads a duration query value. Empty or non-integer input
// falls back to DefaultDurationMinutes; the result is clamped.
func ParseDuration(raw string) int {
	return ClampDuration(utils.ParseIntParam(raw, DefaultDurationMinutes))
}

// MetricsAPI lists time series. Implementations drain all pages.
type MetricsAPI interface {
	ListTimeSeries(ctx context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error)
}

// GCPMonitoring implements MetricsAPI over the Cloud Monitoring client
type GCPMonitoring struct {
	client  *monitoring.MetricClient
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGCPMonitoring opens a metric client. The caller must Close it.
func NewGCPMonitoring(ctx context.Context, creds GCPCredentials, callOpts CallOptions) (*GCPMonitoring, error) {
	client, err := monitoring.NewMetricClient(ctx, creds.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("metric client: %w", err)
	}
	return &GCPMonitoring{
		client:  client,
		limiter: callOpts.limiter(),
		timeout: callOpts.Timeout,
	}, nil
}

// Close releases the metric client
func (g *GCPMonitoring) Close() error {
	return g.client.Close()
}

// ListTimeSeries runs one time series query
func (g *GCPMonitoring) ListTimeSeries(ctx context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out []*monitoringpb.TimeSeries
	it := g.client.ListTimeSeries(ctx, req)
	for {
		ts, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
}

// MetricQuery is one metric type queried with one aligner
type MetricQuery struct {
	MetricType string
	Aligner    monitoringpb.Aggregation_Aligner
}

// MetricFamily groups the queries reported under one breakdown key. A family
// without queries always yields no points and issues no upstream call.
type MetricFamily struct {
	Name    string
	Queries []MetricQuery
}

func rateQueries(types ...string) []MetricQuery {
	return queries(monitoringpb.Aggregation_ALIGN_RATE, types...)
}

func meanQueries(types ...string) []MetricQuery {
	return queries(monitoringpb.Aggregation_ALIGN_MEAN, types...)
}

func queries(aligner monitoringpb.Aggregation_Aligner, types ...string) []MetricQuery {
	out := make([]MetricQuery, 0, len(types))
	for _, t := range types {
		out = append(out, MetricQuery{MetricType: t, Aligner: aligner})
	}
	return out
}

// MetricCatalog lists the families collected every metrics cycle, in order.
// Firewall metrics are not exported by the monitoring API and stay empty.
var MetricCatalog = []MetricFamily{
	{
		Name: network.FamilyVPC,
		Queries: rateQueries(
			"compute.googleapis.com/instance/network/sent_bytes_count",
			"compute.googleapis.com/instance/network/received_bytes_count",
			"compute.googleapis.com/instance/network/sent_packets_count",
			"compute.googleapis.com/instance/network/received_packets_count",
		),
	},
	{
		Name: network.FamilyGCE,
		Queries: rateQueries(
			"compute.googleapis.com/instance/network/sent_bytes_count",
			"compute.googleapis.com/instance/network/received_bytes_count",
		),
	},
	{
		Name: network.FamilyNAT,
		Queries: meanQueries(
			"compute.googleapis.com/nat/sent_bytes_count",
			"compute.googleapis.com/nat/received_bytes_count",
			"compute.googleapis.com/nat/sent_packets_count",
			"compute.googleapis.com/nat/received_packets_count",
			"compute.googleapis.com/nat/new_connections",
			"compute.googleapis.com/nat/port_usage",
			"compute.googleapis.com/nat/allocated_ports",
		),
	},
	{
		Name: network.FamilyFirewall,
	},
	{
		Name: network.FamilyLoadBalancer,
		Queries: rateQueries(
			"loadbalancing.googleapis.com/https/request_count",
			"loadbalancing.googleapis.com/https/request_bytes_count",
			"loadbalancing.googleapis.com/https/response_bytes_count",
			"loadbalancing.googleapis.com/https/backend_latencies",
		),
	},
}

// MetricsCollector queries the metric catalog for one project
type MetricsCollector struct {
	api       MetricsAPI
	projectID string
	catalog   []MetricFamily
	parallel  bool
	log       *logger.Logger
}

// NewMetricsCollector creates a collector over MetricCatalog. When parallel is
// set, families are queried concurrently.
func NewMetricsCollector(api MetricsAPI, projectID string, parallel bool, log *logger.Logger) *MetricsCollector {
	return &MetricsCollector{
		api:       api,
		projectID: projectID,
		catalog:   MetricCatalog,
		parallel:  parallel,
		log:       log.Component("metrics_collector").With("project_id", projectID),
	}
}

// Collect queries every family over [end-duration, end]. The duration is
// clamped first. Families come back in catalog order; a family whose queries
// all failed is also listed in failed.
func (c *MetricsCollector) Collect(ctx context.Context, end time.Time, durationMinutes int) (families []network.FamilyPoints, failed []string) {
	durationMinutes = ClampDuration(durationMinutes)
	start := end.Add(-time.Duration(durationMinutes) * time.Minute)

	results := make([]network.Result[network.MetricPoint], len(c.catalog))
	collect := func(i int) {
		results[i] = c.collectFamily(ctx, c.catalog[i], start, end)
	}

	if c.parallel {
		var g errgroup.Group
		for i := range c.catalog {
			g.Go(func() error {
				collect(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range c.catalog {
			collect(i)
		}
	}

	families = make([]network.FamilyPoints, 0, len(c.catalog))
	for i, fam := range c.catalog {
		families = append(families, network.FamilyPoints{Family: fam.Name, Points: results[i].Items})
		if results[i].Failed() {
			failed = append(failed, fam.Name)
		}
	}
	return families, failed
}

// collectFamily runs the family's queries in order. A failed query is logged
// and skipped; the family fails only when every query failed.
func (c *MetricsCollector) collectFamily(ctx context.Context, fam MetricFamily, start, end time.Time) network.Result[network.MetricPoint] {
	points := []network.MetricPoint{}
	var errs []error
	for _, q := range fam.Queries {
		res := c.Query(ctx, q, start, end)
		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		points = append(points, res.Items...)
	}
	if len(fam.Queries) > 0 && len(errs) == len(fam.Queries) {
		return network.Result[network.MetricPoint]{Items: points, Err: errors.Join(errs...)}
	}
	return network.Succeeded(points)
}

// Query fetches one metric type and flattens every point of every series
func (c *MetricsCollector) Query(ctx context.Context, q MetricQuery, start, end time.Time) network.Result[network.MetricPoint] {
	req := &monitoringpb.ListTimeSeriesRequest{
		Name:   "projects/" + c.projectID,
		Filter: fmt.Sprintf(`metric.type="%s"`, q.MetricType),
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(start),
			EndTime:   timestamppb.New(end),
		},
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:  durationpb.New(AlignmentPeriod),
			PerSeriesAligner: q.Aligner,
		},
		View: monitoringpb.ListTimeSeriesRequest_FULL,
	}

	began := time.Now()
	series, err := c.api.ListTimeSeries(ctx, req)
	metrics.RecordCollectorCall("metric_query", time.Since(began))
	if err != nil {
		metrics.RecordCollectorFailure("metric_query")
		c.log.With("metric_type", q.MetricType).WarnWithErr(err, "Metric query failed")
		return network.FailedEmpty[network.MetricPoint](fmt.Errorf("%s: %w", q.MetricType, err))
	}

	points := []network.MetricPoint{}
	for _, ts := range series {
		points = append(points, seriesPoints(q.MetricType, ts)...)
	}
	return network.Succeeded(points)
}

func seriesPoints(metricType string, ts *monitoringpb.TimeSeries) []network.MetricPoint {
	resourceLabels := copyLabels(ts.GetResource().GetLabels())
	metricLabels := copyLabels(ts.GetMetric().GetLabels())
	valueType := ts.GetValueType().String()
	metricKind := ts.GetMetricKind().String()

	out := make([]network.MetricPoint, 0, len(ts.GetPoints()))
	for _, p := range ts.GetPoints() {
		out = append(out, network.MetricPoint{
			MetricType:     metricType,
			ResourceType:   ts.GetResource().GetType(),
			ResourceLabels: resourceLabels,
			MetricLabels:   metricLabels,
			Timestamp:      network.FormatTimestamp(p.GetInterval().GetEndTime().AsTime()),
			Value:          pointValue(p.GetValue()),
			ValueType:      valueType,
			MetricKind:     metricKind,
		})
	}
	return out
}

// pointValue reads double, int64 and bool values. Other kinds yield nil.
func pointValue(v *monitoringpb.TypedValue) *float64 {
	var f float64
	switch x := v.GetValue().(type) {
	case *monitoringpb.TypedValue_DoubleValue:
		f = x.DoubleValue
	case *monitoringpb.TypedValue_Int64Value:
		f = float64(x.Int64Value)
	case *monitoringpb.TypedValue_BoolValue:
		if x.BoolValue {
			f = 1
		}
	default:
		return nil
	}
	return &f
}

func copyLabels(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
