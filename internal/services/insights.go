package services

import (
	"fmt"
	"strings"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
)

const (
	anyIPv4Range    = "0.0.0.0/0"
	sshPort         = "22"
	premiumZoneHint = "us-west"
)

// Summarize returns the per-category counts of a snapshot
func Summarize(s *network.Snapshot) network.ResourceCounts {
	return s.Counts()
}

// SecurityInsights flags every rule that admits SSH from any IPv4 address:
// the source ranges contain 0.0.0.0/0 and a tcp allow entry covers port 22,
// either explicitly or by listing no ports. Rules keep their input order.
func SecurityInsights(rules []network.FirewallRuleRecord) []network.SecurityInsight {
	insights := []network.SecurityInsight{}
	for _, rule := range rules {
		if !contains(rule.SourceRanges, anyIPv4Range) || !allowsSSH(rule.Allowed) {
			continue
		}
		insights = append(insights, network.SecurityInsight{
			Rule:    rule.Name,
			Message: fmt.Sprintf("Firewall rule '%s' allows SSH from anywhere (0.0.0.0/0)", rule.Name),
		})
	}
	return insights
}

func allowsSSH(allowed []network.FirewallPortSpec) bool {
	for _, a := range allowed {
		if a.Protocol == "tcp" && (len(a.Ports) == 0 || contains(a.Ports, sshPort)) {
			return true
		}
	}
	return false
}

// CostInsights reports instances with external IPs and instances in zones
// that tend to cost more. Each insight is emitted only for a nonzero count.
func CostInsights(instances []network.InstanceRecord) []network.CostInsight {
	external, premium := 0, 0
	for _, inst := range instances {
		if inst.HasExternalIP() {
			external++
		}
		if strings.Contains(inst.Zone, premiumZoneHint) {
			premium++
		}
	}

	insights := []network.CostInsight{}
	if external > 0 {
		insights = append(insights, network.CostInsight{
			Kind:    network.CostKindExternalIP,
			Count:   external,
			Message: fmt.Sprintf("%d instances have external IPs - consider Cloud NAT for cost savings", external),
		})
	}
	if premium > 0 {
		insights = append(insights, network.CostInsight{
			Kind:    network.CostKindPremiumZone,
			Count:   premium,
			Message: fmt.Sprintf("%d instances in potentially more expensive regions", premium),
		})
	}
	return insights
}

// Analyze computes the insights of s and attaches them to it
func Analyze(s *network.Snapshot) *network.Insights {
	s.Insights = &network.Insights{
		Security: SecurityInsights(s.FirewallRules),
		Cost:     CostInsights(s.Instances),
	}
	return s.Insights
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
