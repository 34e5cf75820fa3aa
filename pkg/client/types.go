package client

// ResourceCounts holds the per-kind record counts of a network cycle
type ResourceCounts struct {
	Networks      int `json:"networks" yaml:"networks"`
	Subnetworks   int `json:"subnetworks" yaml:"subnetworks"`
	FirewallRules int `json:"firewall_rules" yaml:"firewall_rules"`
	Routers       int `json:"routers" yaml:"routers"`
	NatGateways   int `json:"nat_gateways" yaml:"nat_gateways"`
	Instances     int `json:"instances" yaml:"instances"`
}

// SecurityInsight is a finding about one firewall rule
type SecurityInsight struct {
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// CostInsight is a finding over the instance fleet
type CostInsight struct {
	Kind    string `json:"kind" yaml:"kind"`
	Count   int    `json:"count" yaml:"count"`
	Message string `json:"message" yaml:"message"`
}

// Insights are derived from a network snapshot
type Insights struct {
	Security []SecurityInsight `json:"security" yaml:"security"`
	Cost     []CostInsight     `json:"cost" yaml:"cost"`
}

// NetworkCollection is the result of a network collection trigger
type NetworkCollection struct {
	Status             string         `json:"status" yaml:"status"`
	Timestamp          string         `json:"timestamp" yaml:"timestamp"`
	ResourcesCollected ResourceCounts `json:"resources_collected" yaml:"resources_collected"`
	Insights           *Insights      `json:"insights" yaml:"insights"`
	FailedSources      []string       `json:"failed_sources" yaml:"failed_sources"`
}

// MetricsCollection is the result of a metrics collection trigger
type MetricsCollection struct {
	Status                string         `json:"status" yaml:"status"`
	Timestamp             string         `json:"timestamp" yaml:"timestamp"`
	DurationMinutes       int            `json:"duration_minutes" yaml:"duration_minutes"`
	TotalMetricsCollected int            `json:"total_metrics_collected" yaml:"total_metrics_collected"`
	MetricsBreakdown      map[string]int `json:"metrics_breakdown" yaml:"metrics_breakdown"`
	FailedSources         []string       `json:"failed_sources" yaml:"failed_sources"`
}

// Document is a stored summary document
type Document struct {
	ID   string                 `json:"id" yaml:"id"`
	Data map[string]interface{} `json:"data" yaml:"data"`
}

// CycleRecords lists the records one cycle wrote to a collection
type CycleRecords struct {
	Collection string     `json:"collection" yaml:"collection"`
	Timestamp  string     `json:"timestamp" yaml:"timestamp"`
	Count      int        `json:"count" yaml:"count"`
	Records    []Document `json:"records" yaml:"records"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// envelope wraps successful non-trigger responses
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}
