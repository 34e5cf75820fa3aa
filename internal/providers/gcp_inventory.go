package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	compute "cloud.google.com/go/compute/apiv1"
	"cloud.google.com/go/compute/apiv1/computepb"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCPCredentials selects the project and, optionally, a service account key.
// Without a key file the clients use Application Default Credentials.
type GCPCredentials struct {
	ProjectID       string
	CredentialsFile string
}

func (c GCPCredentials) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	return opts
}

// CallOptions bounds every upstream call made through a client handle
type CallOptions struct {
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

func (o CallOptions) limiter() *rate.Limiter {
	if o.RequestsPerSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := o.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.RequestsPerSec), burst)
}

// InventoryAPI lists provider-native compute resources. Each call drains all
// pages or fails as a whole.
type InventoryAPI interface {
	ListRegions(ctx context.Context, project string) ([]*computepb.Region, error)
	ListNetworks(ctx context.Context, project string) ([]*computepb.Network, error)
	ListSubnetworks(ctx context.Context, project, region string) ([]*computepb.Subnetwork, error)
	ListFirewalls(ctx context.Context, project string) ([]*computepb.Firewall, error)
	ListRouters(ctx context.Context, project, region string) ([]*computepb.Router, error)
	ListInstances(ctx context.Context, project string) ([]*computepb.Instance, error)
}

// GCPInventory implements InventoryAPI over the Compute Engine REST clients
type GCPInventory struct {
	regions     *compute.RegionsClient
	networks    *compute.NetworksClient
	subnetworks *compute.SubnetworksClient
	firewalls   *compute.FirewallsClient
	routers     *compute.RoutersClient
	instances   *compute.InstancesClient

	limiter *rate.Limiter
	timeout time.Duration
}

// NewGCPInventory opens the compute clients for one collection cycle. The
// caller must Close the returned handle.
func NewGCPInventory(ctx context.Context, creds GCPCredentials, callOpts CallOptions) (*GCPInventory, error) {
	opts := creds.clientOptions()
	g := &GCPInventory{
		limiter: callOpts.limiter(),
		timeout: callOpts.Timeout,
	}

	var err error
	if g.regions, err = compute.NewRegionsRESTClient(ctx, opts...); err != nil {
		return nil, fmt.Errorf("regions client: %w", err)
	}
	if g.networks, err = compute.NewNetworksRESTClient(ctx, opts...); err != nil {
		g.Close()
		return nil, fmt.Errorf("networks client: %w", err)
	}
	if g.subnetworks, err = compute.NewSubnetworksRESTClient(ctx, opts...); err != nil {
		g.Close()
		return nil, fmt.Errorf("subnetworks client: %w", err)
	}
	if g.firewalls, err = compute.NewFirewallsRESTClient(ctx, opts...); err != nil {
		g.Close()
		return nil, fmt.Errorf("firewalls client: %w", err)
	}
	if g.routers, err = compute.NewRoutersRESTClient(ctx, opts...); err != nil {
		g.Close()
		return nil, fmt.Errorf("routers client: %w", err)
	}
	if g.instances, err = compute.NewInstancesRESTClient(ctx, opts...); err != nil {
		g.Close()
		return nil, fmt.Errorf("instances client: %w", err)
	}

	return g, nil
}

// Close releases every client that was opened
func (g *GCPInventory) Close() error {
	var errs []error
	if g.regions != nil {
		errs = append(errs, g.regions.Close())
	}
	if g.networks != nil {
		errs = append(errs, g.networks.Close())
	}
	if g.subnetworks != nil {
		errs = append(errs, g.subnetworks.Close())
	}
	if g.firewalls != nil {
		errs = append(errs, g.firewalls.Close())
	}
	if g.routers != nil {
		errs = append(errs, g.routers.Close())
	}
	if g.instances != nil {
		errs = append(errs, g.instances.Close())
	}
	return errors.Join(errs...)
}

// call waits for the limiter and bounds fn with the per-call timeout
func (g *GCPInventory) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

// ListRegions lists the regions visible to project
func (g *GCPInventory) ListRegions(ctx context.Context, project string) ([]*computepb.Region, error) {
	var out []*computepb.Region
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = drain[*computepb.Region](g.regions.List(ctx, &computepb.ListRegionsRequest{Project: project}))
		return err
	})
	return out, err
}

// ListNetworks lists the VPC networks of project
func (g *GCPInventory) ListNetworks(ctx context.Context, project string) ([]*computepb.Network, error) {
	var out []*computepb.Network
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = drain[*computepb.Network](g.networks.List(ctx, &computepb.ListNetworksRequest{Project: project}))
		return err
	})
	return out, err
}

// ListSubnetworks lists the subnetworks of project in region
func (g *GCPInventory) ListSubnetworks(ctx context.Context, project, region string) ([]*computepb.Subnetwork, error) {
	var out []*computepb.Subnetwork
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = drain[*computepb.Subnetwork](g.subnetworks.List(ctx, &computepb.ListSubnetworksRequest{
			Project: project,
			Region:  region,
		}))
		return err
	})
	return out, err
}

// ListFirewalls lists the firewall rules of project
func (g *GCPInventory) ListFirewalls(ctx context.Context, project string) ([]*computepb.Firewall, error) {
	var out []*computepb.Firewall
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = drain[*computepb.Firewall](g.firewalls.List(ctx, &computepb.ListFirewallsRequest{Project: project}))
		return err
	})
	return out, err
}

// ListRouters lists the Cloud Routers of project in region
func (g *GCPInventory) ListRouters(ctx context.Context, project, region string) ([]*computepb.Router, error) {
	var out []*computepb.Router
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = drain[*computepb.Router](g.routers.List(ctx, &computepb.ListRoutersRequest{
			Project: project,
			Region:  region,
		}))
		return err
	})
	return out, err
}

// ListInstances lists instances across all zones via AggregatedList
func (g *GCPInventory) ListInstances(ctx context.Context, project string) ([]*computepb.Instance, error) {
	var out []*computepb.Instance
	err := g.call(ctx, func(ctx context.Context) error {
		it := g.instances.AggregatedList(ctx, &computepb.AggregatedListInstancesRequest{Project: project})
		for {
			pair, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			if err != nil {
				out = nil
				return err
			}
			if pair.Value == nil {
				continue
			}
			out = append(out, pair.Value.GetInstances()...)
		}
	})
	return out, err
}

type pageIterator[T any] interface {
	Next() (T, error)
}

// drain reads an iterator to completion. A mid-stream error discards what was read.
func drain[T any](it pageIterator[T]) ([]T, error) {
	var out []T
	for {
		item, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
}
