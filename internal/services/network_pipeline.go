package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/metrics"
	"github.com/LizBugFree/network-monitor-demo/internal/providers"
)

// Pipeline names used in logs and metrics
const (
	PipelineNetwork = "network"
	PipelineMetrics = "metrics"
)

// SourceNatGateways is reported when NAT gateways could not be derived
const SourceNatGateways = "nat_gateways"

// MissingProjectMessage is the client-facing error when no project is configured
const MissingProjectMessage = "Project ID not found"

// PipelineOptions tune how a cycle runs
type PipelineOptions struct {
	// Parallel runs collector units concurrently
	Parallel          bool
	RegionConcurrency int
	// CycleTimeout bounds a whole cycle; zero means no deadline
	CycleTimeout time.Duration
}

// NetworkCycleResult is the outcome of a successful network cycle
type NetworkCycleResult struct {
	Timestamp          string                 `json:"timestamp"`
	ProjectID          string                 `json:"project_id"`
	DocumentID         string                 `json:"document_id"`
	ResourcesCollected network.ResourceCounts `json:"resources_collected"`
	Insights           *network.Insights      `json:"insights"`
	FailedSources      []string               `json:"failed_sources"`
	Commits            map[string]int         `json:"-"`
	History            []Transition           `json:"-"`
}

// NetworkPipeline runs collect, aggregate and persist for the network inventory
type NetworkPipeline struct {
	clients ClientFactory
	writer  *SnapshotWriter
	archive SnapshotArchiver
	opts    PipelineOptions
	logger  *logger.Logger
	now     func() time.Time
}

// NewNetworkPipeline creates a network pipeline
func NewNetworkPipeline(clients ClientFactory, writer *SnapshotWriter, opts PipelineOptions, log *logger.Logger) *NetworkPipeline {
	return &NetworkPipeline{
		clients: clients,
		writer:  writer,
		opts:    opts,
		logger:  log.Component("network_pipeline"),
		now:     time.Now,
	}
}

// WithArchive enables archiving every persisted snapshot
func (p *NetworkPipeline) WithArchive(a SnapshotArchiver) *NetworkPipeline {
	p.archive = a
	return p
}

// Run executes one network cycle for projectID. Collector failures are
// isolated and reported in FailedSources; only a missing project, a client
// that cannot be opened or a persistence failure fail the cycle.
func (p *NetworkPipeline) Run(ctx context.Context, projectID string) (*NetworkCycleResult, error) {
	cycle := NewCycle(PipelineNetwork)
	log := p.logger.With("project_id", projectID)
	defer func() {
		metrics.RecordCycle(PipelineNetwork, string(cycle.State()), cycle.Elapsed())
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

	client, err := p.clients.NewInventory(ctx, projectID)
	if err != nil {
		_ = cycle.Fail(err)
		log.ErrorWithErr(err, "Failed to open inventory clients")
		return nil, err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.WarnWithErr(err, "Failed to close inventory clients")
		}
	}()

	if err := cycle.Advance(StateCollecting); err != nil {
		return nil, err
	}
	snapshot := network.NewSnapshot(projectID, p.now())
	failed := p.collect(ctx, providers.NewNetworkCollector(client, projectID, p.opts.RegionConcurrency, p.logger), snapshot)

	if err := cycle.Advance(StateAggregating); err != nil {
		return nil, err
	}
	counts := Summarize(snapshot)
	insights := Analyze(snapshot)
	recordCounts(counts)

	if err := cycle.Advance(StatePersisting); err != nil {
		return nil, err
	}
	report, err := p.writer.WriteNetworkSnapshot(ctx, snapshot)
	if err != nil {
		_ = cycle.Fail(err)
		log.ErrorWithErr(err, "Network cycle failed")
		return nil, err
	}

	if p.archive != nil {
		object := providers.ArchiveObjectName(projectID, snapshot.DocumentID())
		if err := p.archive.Put(ctx, object, snapshot); err != nil {
			log.With("object", object).WarnWithErr(err, "Snapshot archive failed")
		}
	}

	if err := cycle.Advance(StateDone); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"timestamp":      snapshot.TimestampString(),
		"networks":       counts.Networks,
		"subnetworks":    counts.Subnetworks,
		"firewall_rules": counts.FirewallRules,
		"instances":      counts.Instances,
		"failed_sources": failed,
		"duration_ms":    cycle.Elapsed().Milliseconds(),
	}).Info("Network cycle completed")

	return &NetworkCycleResult{
		Timestamp:          snapshot.TimestampString(),
		ProjectID:          projectID,
		DocumentID:         snapshot.DocumentID(),
		ResourcesCollected: counts,
		Insights:           insights,
		FailedSources:      failed,
		Commits:            report.Commits,
		History:            cycle.History(),
	}, nil
}

// collect fills the snapshot from the five collector units. Every unit owns
// its own snapshot fields, so units may run concurrently.
func (p *NetworkPipeline) collect(ctx context.Context, c *providers.NetworkCollector, s *network.Snapshot) []string {
	var (
		networks  network.Result[network.NetworkRecord]
		subnets   network.Result[network.SubnetRecord]
		rules     network.Result[network.FirewallRuleRecord]
		routers   network.Result[network.RouterRecord]
		nats      network.Result[network.NatGatewayRecord]
		instances network.Result[network.InstanceRecord]
	)

	units := []func(){
		func() { networks = c.Networks(ctx) },
		func() { subnets = c.Subnetworks(ctx) },
		func() { rules = c.FirewallRules(ctx) },
		func() { routers, nats = c.Routers(ctx) },
		func() { instances = c.Instances(ctx) },
	}
	runUnits(p.opts.Parallel, units)

	s.Networks = networks.Items
	s.Subnetworks = subnets.Items
	s.FirewallRules = rules.Items
	s.Routers = routers.Items
	s.NatGateways = nats.Items
	s.Instances = instances.Items

	failed := []string{}
	if networks.Failed() {
		failed = append(failed, providers.SourceNetworks)
	}
	if subnets.Failed() {
		failed = append(failed, providers.SourceSubnetworks)
	}
	if rules.Failed() {
		failed = append(failed, providers.SourceFirewallRules)
	}
	if routers.Failed() {
		failed = append(failed, providers.SourceRouters, SourceNatGateways)
	}
	if instances.Failed() {
		failed = append(failed, providers.SourceInstances)
	}
	return failed
}

// runUnits runs every unit to completion. Units never return errors, so one
// unit cannot cancel another.
func runUnits(parallel bool, units []func()) {
	if !parallel {
		for _, u := range units {
			u()
		}
		return
	}
	var g errgroup.Group
	for _, u := range units {
		g.Go(func() error {
			u()
			return nil
		})
	}
	_ = g.Wait()
}

func recordCounts(c network.ResourceCounts) {
	metrics.SetRecordsCollected(CollectionNetworks, c.Networks)
	metrics.SetRecordsCollected(CollectionSubnetworks, c.Subnetworks)
	metrics.SetRecordsCollected(CollectionFirewallRules, c.FirewallRules)
	metrics.SetRecordsCollected(CollectionRouters, c.Routers)
	metrics.SetRecordsCollected(CollectionNatGateways, c.NatGateways)
	metrics.SetRecordsCollected(CollectionInstances, c.Instances)
}
