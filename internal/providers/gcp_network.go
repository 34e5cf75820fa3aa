package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/compute/apiv1/computepb"
	"golang.org/x/sync/errgroup"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/metrics"
)

// Collector sources, used as failed_sources entries and metric labels
const (
	SourceRegions       = "regions"
	SourceNetworks      = "networks"
	SourceSubnetworks   = "subnetworks"
	SourceFirewallRules = "firewall_rules"
	SourceRouters       = "routers"
	SourceInstances     = "instances"
)

// NetworkCollector turns inventory listings into normalized records. Every
// method returns a Result and never an error: a failed listing is logged,
// counted and reported as failed-empty.
type NetworkCollector struct {
	api               InventoryAPI
	projectID         string
	regionConcurrency int
	log               *logger.Logger
}

// NewNetworkCollector creates a collector for projectID
func NewNetworkCollector(api InventoryAPI, projectID string, regionConcurrency int, log *logger.Logger) *NetworkCollector {
	if regionConcurrency < 1 {
		regionConcurrency = 1
	}
	return &NetworkCollector{
		api:               api,
		projectID:         projectID,
		regionConcurrency: regionConcurrency,
		log:               log.Component("network_collector").With("project_id", projectID),
	}
}

// Networks collects VPC networks
func (c *NetworkCollector) Networks(ctx context.Context) network.Result[network.NetworkRecord] {
	start := time.Now()
	items, err := c.api.ListNetworks(ctx, c.projectID)
	metrics.RecordCollectorCall(SourceNetworks, time.Since(start))
	if err != nil {
		c.fail(SourceNetworks, err)
		return network.FailedEmpty[network.NetworkRecord](err)
	}

	records := make([]network.NetworkRecord, 0, len(items))
	for _, n := range items {
		records = append(records, toNetworkRecord(n))
	}
	return network.Succeeded(records)
}

// Subnetworks collects subnetworks of every region
func (c *NetworkCollector) Subnetworks(ctx context.Context) network.Result[network.SubnetRecord] {
	return collectRegional(ctx, c, SourceSubnetworks, func(ctx context.Context, region string) ([]network.SubnetRecord, error) {
		items, err := c.api.ListSubnetworks(ctx, c.projectID, region)
		if err != nil {
			return nil, err
		}
		records := make([]network.SubnetRecord, 0, len(items))
		for _, s := range items {
			records = append(records, toSubnetRecord(s, region))
		}
		return records, nil
	})
}

// FirewallRules collects firewall rules
func (c *NetworkCollector) FirewallRules(ctx context.Context) network.Result[network.FirewallRuleRecord] {
	start := time.Now()
	items, err := c.api.ListFirewalls(ctx, c.projectID)
	metrics.RecordCollectorCall(SourceFirewallRules, time.Since(start))
	if err != nil {
		c.fail(SourceFirewallRules, err)
		return network.FailedEmpty[network.FirewallRuleRecord](err)
	}

	records := make([]network.FirewallRuleRecord, 0, len(items))
	for _, f := range items {
		records = append(records, toFirewallRecord(f))
	}
	return network.Succeeded(records)
}

type routerWithNats struct {
	router network.RouterRecord
	nats   []network.NatGatewayRecord
}

// Routers collects Cloud Routers of every region together with the NAT
// gateways configured on them. Both results share the router listing, so they
// fail together.
func (c *NetworkCollector) Routers(ctx context.Context) (network.Result[network.RouterRecord], network.Result[network.NatGatewayRecord]) {
	res := collectRegional(ctx, c, SourceRouters, func(ctx context.Context, region string) ([]routerWithNats, error) {
		items, err := c.api.ListRouters(ctx, c.projectID, region)
		if err != nil {
			return nil, err
		}
		out := make([]routerWithNats, 0, len(items))
		for _, r := range items {
			out = append(out, routerWithNats{
				router: toRouterRecord(r, region),
				nats:   toNatRecords(r, region),
			})
		}
		return out, nil
	})

	routers := network.Result[network.RouterRecord]{Items: []network.RouterRecord{}, Err: res.Err}
	nats := network.Result[network.NatGatewayRecord]{Items: []network.NatGatewayRecord{}, Err: res.Err}
	for _, rn := range res.Items {
		routers.Items = append(routers.Items, rn.router)
		nats.Items = append(nats.Items, rn.nats...)
	}
	return routers, nats
}

// Instances collects instances from all zones
func (c *NetworkCollector) Instances(ctx context.Context) network.Result[network.InstanceRecord] {
	start := time.Now()
	items, err := c.api.ListInstances(ctx, c.projectID)
	metrics.RecordCollectorCall(SourceInstances, time.Since(start))
	if err != nil {
		c.fail(SourceInstances, err)
		return network.FailedEmpty[network.InstanceRecord](err)
	}

	records := make([]network.InstanceRecord, 0, len(items))
	for _, inst := range items {
		records = append(records, toInstanceRecord(inst))
	}
	return network.Succeeded(records)
}

func (c *NetworkCollector) fail(source string, err error) {
	metrics.RecordCollectorFailure(source)
	c.log.With("source", source).ErrorWithErr(err, "Collector listing failed")
}

// collectRegional enumerates regions and runs list for each one with bounded
// concurrency. Output keeps region order. A failed region is skipped and its
// error joined into the result; a failed region listing fails the whole class.
func collectRegional[T any](ctx context.Context, c *NetworkCollector, source string, list func(ctx context.Context, region string) ([]T, error)) network.Result[T] {
	start := time.Now()
	regions, err := c.api.ListRegions(ctx, c.projectID)
	if err != nil {
		metrics.RecordCollectorCall(source, time.Since(start))
		c.fail(source, fmt.Errorf("list regions: %w", err))
		return network.FailedEmpty[T](err)
	}

	perRegion := make([][]T, len(regions))
	errs := make([]error, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.regionConcurrency)
	for i, r := range regions {
		region := r.GetName()
		g.Go(func() error {
			items, err := list(gctx, region)
			if err != nil {
				errs[i] = fmt.Errorf("region %s: %w", region, err)
				return nil
			}
			perRegion[i] = items
			return nil
		})
	}
	_ = g.Wait()
	metrics.RecordCollectorCall(source, time.Since(start))

	items := []T{}
	for i := range regions {
		items = append(items, perRegion[i]...)
	}

	joined := errors.Join(errs...)
	if joined != nil {
		c.fail(source, joined)
	}
	return network.Result[T]{Items: items, Err: joined}
}

func toNetworkRecord(n *computepb.Network) network.NetworkRecord {
	mode := n.GetRoutingConfig().GetRoutingMode()
	if mode == "" {
		mode = network.RoutingModeRegional
	}
	return network.NetworkRecord{
		Name:                  n.GetName(),
		ID:                    strconv.FormatUint(n.GetId(), 10),
		Description:           n.GetDescription(),
		AutoCreateSubnetworks: n.GetAutoCreateSubnetworks(),
		RoutingMode:           mode,
		CreationTimestamp:     n.GetCreationTimestamp(),
		SelfLink:              n.GetSelfLink(),
		SubnetCount:           len(n.GetSubnetworks()),
	}
}

func toSubnetRecord(s *computepb.Subnetwork, region string) network.SubnetRecord {
	purpose := s.GetPurpose()
	if purpose == "" {
		purpose = network.DefaultSubnetPurpose
	}
	return network.SubnetRecord{
		Name:                  s.GetName(),
		ID:                    strconv.FormatUint(s.GetId(), 10),
		Region:                region,
		Network:               network.LastSegment(s.GetNetwork()),
		IPCidrRange:           s.GetIpCidrRange(),
		GatewayAddress:        s.GetGatewayAddress(),
		PrivateIPGoogleAccess: s.GetPrivateIpGoogleAccess(),
		Purpose:               purpose,
		CreationTimestamp:     s.GetCreationTimestamp(),
		AvailableIPs:          network.AvailableIPs(s.GetIpCidrRange()),
	}
}

func toFirewallRecord(f *computepb.Firewall) network.FirewallRuleRecord {
	priority := int(f.GetPriority())
	if priority < 0 {
		priority = 0
	}

	allowed := make([]network.FirewallPortSpec, 0, len(f.GetAllowed()))
	for _, a := range f.GetAllowed() {
		allowed = append(allowed, network.FirewallPortSpec{
			Protocol: a.GetIPProtocol(),
			Ports:    nonNil(a.GetPorts()),
		})
	}
	denied := make([]network.FirewallPortSpec, 0, len(f.GetDenied()))
	for _, d := range f.GetDenied() {
		denied = append(denied, network.FirewallPortSpec{
			Protocol: d.GetIPProtocol(),
			Ports:    nonNil(d.GetPorts()),
		})
	}

	return network.FirewallRuleRecord{
		Name:              f.GetName(),
		ID:                strconv.FormatUint(f.GetId(), 10),
		Description:       f.GetDescription(),
		Network:           network.LastSegment(f.GetNetwork()),
		Direction:         f.GetDirection(),
		Priority:          priority,
		SourceRanges:      nonNil(f.GetSourceRanges()),
		TargetTags:        nonNil(f.GetTargetTags()),
		Allowed:           allowed,
		Denied:            denied,
		CreationTimestamp: f.GetCreationTimestamp(),
		Disabled:          f.GetDisabled(),
	}
}

func toRouterRecord(r *computepb.Router, region string) network.RouterRecord {
	rec := network.RouterRecord{
		Name:              r.GetName(),
		ID:                strconv.FormatUint(r.GetId(), 10),
		Region:            region,
		Network:           network.LastSegment(r.GetNetwork()),
		Description:       r.GetDescription(),
		NatCount:          len(r.GetNats()),
		CreationTimestamp: r.GetCreationTimestamp(),
	}
	if bgp := r.GetBgp(); bgp != nil {
		asn := bgp.GetAsn()
		mode := bgp.GetAdvertiseMode()
		rec.BgpASN = &asn
		rec.BgpAdvertiseMode = &mode
	}
	return rec
}

func toNatRecords(r *computepb.Router, region string) []network.NatGatewayRecord {
	out := make([]network.NatGatewayRecord, 0, len(r.GetNats()))
	for _, nat := range r.GetNats() {
		out = append(out, network.NatGatewayRecord{
			Name:                             nat.GetName(),
			RouterName:                       r.GetName(),
			Region:                           region,
			NatIPAllocateOption:              nat.GetNatIpAllocateOption(),
			SourceSubnetworkIPRangesToNat:    nat.GetSourceSubnetworkIpRangesToNat(),
			MinPortsPerVM:                    int(nat.GetMinPortsPerVm()),
			MaxPortsPerVM:                    int(nat.GetMaxPortsPerVm()),
			EnableEndpointIndependentMapping: nat.GetEnableEndpointIndependentMapping(),
			LogConfigEnabled:                 nat.GetLogConfig().GetEnable(),
		})
	}
	return out
}

func toInstanceRecord(inst *computepb.Instance) network.InstanceRecord {
	rec := network.InstanceRecord{
		Name:              inst.GetName(),
		Zone:              network.LastSegment(inst.GetZone()),
		MachineType:       network.LastSegment(inst.GetMachineType()),
		Status:            inst.GetStatus(),
		CreationTimestamp: inst.GetCreationTimestamp(),
	}
	ifaces := inst.GetNetworkInterfaces()
	if len(ifaces) == 0 {
		return rec
	}
	primary := ifaces[0]
	rec.InternalIP = primary.GetNetworkIP()
	rec.Network = network.LastSegment(primary.GetNetwork())
	rec.Subnet = network.LastSegment(primary.GetSubnetwork())
	if acs := primary.GetAccessConfigs(); len(acs) > 0 {
		rec.ExternalIP = acs[0].GetNatIP()
	}
	return rec
}

func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
