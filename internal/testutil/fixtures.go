package testutil

import (
	"time"

	"cloud.google.com/go/compute/apiv1/computepb"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	metricpb "google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ProjectID is the project used by fixtures
const ProjectID = "demo-project"

const computeBase = "https://www.googleapis.com/compute/v1/projects/" + ProjectID

// ScenarioInventory returns two networks, three subnets across two regions,
// one router with a NAT, one open SSH rule and two instances
func ScenarioInventory() *MockInventoryAPI {
	m := NewMockInventoryAPI()
	m.Regions = []string{"us-central1", "europe-west1"}

	m.Networks = []*computepb.Network{
		{
			Name:                  proto.String("default"),
			Id:                    proto.Uint64(1001),
			AutoCreateSubnetworks: proto.Bool(true),
			RoutingConfig:         &computepb.NetworkRoutingConfig{RoutingMode: proto.String("GLOBAL")},
			SelfLink:              proto.String(computeBase + "/global/networks/default"),
			Subnetworks: []string{
				computeBase + "/regions/us-central1/subnetworks/default-us",
				computeBase + "/regions/europe-west1/subnetworks/default-eu",
			},
		},
		{
			Name:     proto.String("prod-vpc"),
			Id:       proto.Uint64(1002),
			SelfLink: proto.String(computeBase + "/global/networks/prod-vpc"),
			Subnetworks: []string{
				computeBase + "/regions/us-central1/subnetworks/prod-app",
			},
		},
	}

	m.Subnetworks["us-central1"] = []*computepb.Subnetwork{
		{
			Name:           proto.String("default-us"),
			Id:             proto.Uint64(2001),
			Network:        proto.String(computeBase + "/global/networks/default"),
			IpCidrRange:    proto.String("10.0.0.0/24"),
			GatewayAddress: proto.String("10.0.0.1"),
		},
		{
			Name:                  proto.String("prod-app"),
			Id:                    proto.Uint64(2002),
			Network:               proto.String(computeBase + "/global/networks/prod-vpc"),
			IpCidrRange:           proto.String("10.10.0.0/20"),
			PrivateIpGoogleAccess: proto.Bool(true),
			Purpose:               proto.String("PRIVATE"),
		},
	}
	m.Subnetworks["europe-west1"] = []*computepb.Subnetwork{
		{
			Name:        proto.String("default-eu"),
			Id:          proto.Uint64(2003),
			Network:     proto.String(computeBase + "/global/networks/default"),
			IpCidrRange: proto.String("10.132.0.0/20"),
		},
	}

	m.Firewalls = []*computepb.Firewall{
		{
			Name:         proto.String("allow-ssh-anywhere"),
			Id:           proto.Uint64(3001),
			Network:      proto.String(computeBase + "/global/networks/default"),
			Direction:    proto.String("INGRESS"),
			Priority:     proto.Int32(1000),
			SourceRanges: []string{"0.0.0.0/0"},
			Allowed:      []*computepb.Allowed{{IPProtocol: proto.String("tcp")}},
		},
	}

	m.Routers["us-central1"] = []*computepb.Router{
		{
			Name:    proto.String("nat-router"),
			Id:      proto.Uint64(4001),
			Network: proto.String(computeBase + "/global/networks/prod-vpc"),
			Bgp:     &computepb.RouterBgp{Asn: proto.Uint32(64514), AdvertiseMode: proto.String("DEFAULT")},
			Nats: []*computepb.RouterNat{
				{
					Name:                          proto.String("prod-nat"),
					NatIpAllocateOption:           proto.String("AUTO_ONLY"),
					SourceSubnetworkIpRangesToNat: proto.String("ALL_SUBNETWORKS_ALL_IP_RANGES"),
					MinPortsPerVm:                 proto.Int32(64),
					LogConfig:                     &computepb.RouterNatLogConfig{Enable: proto.Bool(true)},
				},
			},
		},
	}

	m.Instances = []*computepb.Instance{
		{
			Name:        proto.String("web-1"),
			Zone:        proto.String(computeBase + "/zones/us-west1-a"),
			MachineType: proto.String(computeBase + "/zones/us-west1-a/machineTypes/e2-medium"),
			Status:      proto.String("RUNNING"),
			NetworkInterfaces: []*computepb.NetworkInterface{
				{
					Network:       proto.String(computeBase + "/global/networks/default"),
					Subnetwork:    proto.String(computeBase + "/regions/us-west1/subnetworks/default-usw"),
					NetworkIP:     proto.String("10.138.0.2"),
					AccessConfigs: []*computepb.AccessConfig{{NatIP: proto.String("34.82.1.10")}},
				},
			},
		},
		{
			Name:        proto.String("worker-1"),
			Zone:        proto.String(computeBase + "/zones/us-central1-b"),
			MachineType: proto.String(computeBase + "/zones/us-central1-b/machineTypes/e2-small"),
			Status:      proto.String("RUNNING"),
			NetworkInterfaces: []*computepb.NetworkInterface{
				{
					Network:    proto.String(computeBase + "/global/networks/prod-vpc"),
					Subnetwork: proto.String(computeBase + "/regions/us-central1/subnetworks/prod-app"),
					NetworkIP:  proto.String("10.10.0.5"),
				},
			},
		},
	}

	return m
}

// DoubleSeries builds a gauge series of double points, one every five
// minutes, the last one ending at end
func DoubleSeries(metricType, instanceID string, end time.Time, values ...float64) *monitoringpb.TimeSeries {
	ts := &monitoringpb.TimeSeries{
		Metric: &metricpb.Metric{
			Type:   metricType,
			Labels: map[string]string{"loadbalanced": "false"},
		},
		Resource: &monitoredres.MonitoredResource{
			Type:   "gce_instance",
			Labels: map[string]string{"instance_id": instanceID, "zone": "us-central1-b"},
		},
		MetricKind: metricpb.MetricDescriptor_GAUGE,
		ValueType:  metricpb.MetricDescriptor_DOUBLE,
	}
	for i, v := range values {
		pointEnd := end.Add(-time.Duration(len(values)-1-i) * 5 * time.Minute)
		ts.Points = append(ts.Points, &monitoringpb.Point{
			Interval: &monitoringpb.TimeInterval{EndTime: timestamppb.New(pointEnd)},
			Value:    &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: v}},
		})
	}
	return ts
}
