package network

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire format of every timestamp the pipeline writes.
// Fixed width keeps lexical and chronological order identical.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in TimestampLayout (UTC)
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// DocumentID returns the summary document id of a cycle
func DocumentID(projectID string, t time.Time) string {
	return fmt.Sprintf("%s_%d", projectID, t.Unix())
}

// Snapshot is the result of one network collection cycle. Its timestamp and
// project are fixed by NewSnapshot; collectors fill the disjoint record slices.
type Snapshot struct {
	timestamp time.Time
	projectID string

	Networks      []NetworkRecord
	Subnetworks   []SubnetRecord
	FirewallRules []FirewallRuleRecord
	Routers       []RouterRecord
	NatGateways   []NatGatewayRecord
	Instances     []InstanceRecord

	Insights *Insights
}

// NewSnapshot starts a snapshot for projectID at ts (stored in UTC, microsecond precision)
func NewSnapshot(projectID string, ts time.Time) *Snapshot {
	return &Snapshot{
		timestamp:     ts.UTC().Truncate(time.Microsecond),
		projectID:     projectID,
		Networks:      []NetworkRecord{},
		Subnetworks:   []SubnetRecord{},
		FirewallRules: []FirewallRuleRecord{},
		Routers:       []RouterRecord{},
		NatGateways:   []NatGatewayRecord{},
		Instances:     []InstanceRecord{},
	}
}

// Timestamp returns the cycle time
func (s *Snapshot) Timestamp() time.Time { return s.timestamp }

// TimestampString returns the cycle time in TimestampLayout
func (s *Snapshot) TimestampString() string { return FormatTimestamp(s.timestamp) }

// ProjectID returns the project the snapshot belongs to
func (s *Snapshot) ProjectID() string { return s.projectID }

// DocumentID returns {project_id}_{unix_seconds}
func (s *Snapshot) DocumentID() string { return DocumentID(s.projectID, s.timestamp) }

// Counts returns the number of records per resource category
func (s *Snapshot) Counts() ResourceCounts {
	return ResourceCounts{
		Networks:      len(s.Networks),
		Subnetworks:   len(s.Subnetworks),
		FirewallRules: len(s.FirewallRules),
		Routers:       len(s.Routers),
		NatGateways:   len(s.NatGateways),
		Instances:     len(s.Instances),
	}
}

// MarshalJSON renders the full snapshot, as archived
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp     string               `json:"timestamp"`
		ProjectID     string               `json:"project_id"`
		Networks      []NetworkRecord      `json:"networks"`
		Subnetworks   []SubnetRecord       `json:"subnetworks"`
		FirewallRules []FirewallRuleRecord `json:"firewall_rules"`
		Routers       []RouterRecord       `json:"routers"`
		NatGateways   []NatGatewayRecord   `json:"nat_gateways"`
		Instances     []InstanceRecord     `json:"instances"`
		Summary       ResourceCounts       `json:"summary"`
		Insights      *Insights            `json:"insights,omitempty"`
	}{
		Timestamp:     s.TimestampString(),
		ProjectID:     s.projectID,
		Networks:      s.Networks,
		Subnetworks:   s.Subnetworks,
		FirewallRules: s.FirewallRules,
		Routers:       s.Routers,
		NatGateways:   s.NatGateways,
		Instances:     s.Instances,
		Summary:       s.Counts(),
		Insights:      s.Insights,
	})
}

// ResourceCounts is the per-category count summary of a snapshot
type ResourceCounts struct {
	Networks      int `json:"networks"`
	Subnetworks   int `json:"subnetworks"`
	FirewallRules int `json:"firewall_rules"`
	Routers       int `json:"routers"`
	NatGateways   int `json:"nat_gateways"`
	Instances     int `json:"instances"`
}

// SecurityInsight is a derived security finding about one firewall rule
type SecurityInsight struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Cost insight kinds
const (
	CostKindExternalIP  = "external_ip"
	CostKindPremiumZone = "premium_zone"
)

// CostInsight is a derived cost finding over the instance fleet
type CostInsight struct {
	Kind    string `json:"kind"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// Insights are recomputed each cycle and never stored as state
type Insights struct {
	Security []SecurityInsight `json:"security"`
	Cost     []CostInsight     `json:"cost"`
}
