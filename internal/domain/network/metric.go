package network

import "time"

// Metric families reported by the metrics pipeline, in catalog order
const (
	FamilyVPC          = "vpc_metrics"
	FamilyGCE          = "gce_metrics"
	FamilyNAT          = "nat_metrics"
	FamilyFirewall     = "firewall_metrics"
	FamilyLoadBalancer = "load_balancer_metrics"
)

// MetricPoint is one aligned sample of a time series. Value is nil when the
// upstream point carried a kind that has no numeric reading.
type MetricPoint struct {
	MetricType     string            `json:"metric_type"`
	ResourceType   string            `json:"resource_type"`
	ResourceLabels map[string]string `json:"resource_labels"`
	MetricLabels   map[string]string `json:"metric_labels"`
	Timestamp      string            `json:"timestamp"`
	Value          *float64          `json:"value"`
	ValueType      string            `json:"value_type"`
	MetricKind     string            `json:"metric_kind"`
}

// FamilyPoints holds the points collected for one family
type FamilyPoints struct {
	Family string        `json:"family"`
	Points []MetricPoint `json:"points"`
}

// MetricsSnapshot is the result of one metrics collection cycle
type MetricsSnapshot struct {
	timestamp time.Time
	projectID string

	DurationMinutes int
	Families        []FamilyPoints
}

// NewMetricsSnapshot starts a metrics snapshot for projectID at ts
func NewMetricsSnapshot(projectID string, ts time.Time, durationMinutes int) *MetricsSnapshot {
	return &MetricsSnapshot{
		timestamp:       ts.UTC().Truncate(time.Microsecond),
		projectID:       projectID,
		DurationMinutes: durationMinutes,
	}
}

// Timestamp returns the cycle time, which is also the end of the query window
func (m *MetricsSnapshot) Timestamp() time.Time { return m.timestamp }

// TimestampString returns the cycle time in TimestampLayout
func (m *MetricsSnapshot) TimestampString() string { return FormatTimestamp(m.timestamp) }

// ProjectID returns the project the snapshot belongs to
func (m *MetricsSnapshot) ProjectID() string { return m.projectID }

// DocumentID returns {project_id}_{unix_seconds}
func (m *MetricsSnapshot) DocumentID() string { return DocumentID(m.projectID, m.timestamp) }

// Breakdown returns the point count per family
func (m *MetricsSnapshot) Breakdown() map[string]int {
	out := make(map[string]int, len(m.Families))
	for _, f := range m.Families {
		out[f.Family] = len(f.Points)
	}
	return out
}

// Total returns the number of points across all families
func (m *MetricsSnapshot) Total() int {
	n := 0
	for _, f := range m.Families {
		n += len(f.Points)
	}
	return n
}

// AllPoints concatenates every family's points in catalog order
func (m *MetricsSnapshot) AllPoints() []MetricPoint {
	out := make([]MetricPoint, 0, m.Total())
	for _, f := range m.Families {
		out = append(out, f.Points...)
	}
	return out
}
