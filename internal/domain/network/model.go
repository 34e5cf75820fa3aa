package network

// Routing modes
const (
	RoutingModeRegional = "REGIONAL"
	RoutingModeGlobal   = "GLOBAL"
)

// DefaultSubnetPurpose is reported when the API omits a subnet purpose
const DefaultSubnetPurpose = "PRIVATE_RFC_1918"

// NetworkRecord is a VPC network
type NetworkRecord struct {
	Name                  string `json:"name"`
	ID                    string `json:"id"`
	Description           string `json:"description"`
	AutoCreateSubnetworks bool   `json:"auto_create_subnetworks"`
	RoutingMode           string `json:"routing_mode"`
	CreationTimestamp     string `json:"creation_timestamp"`
	SelfLink              string `json:"self_link"`
	SubnetCount           int    `json:"subnet_count"`
}

// SubnetRecord is a regional subnetwork
type SubnetRecord struct {
	Name                  string `json:"name"`
	ID                    string `json:"id"`
	Region                string `json:"region"`
	Network               string `json:"network"`
	IPCidrRange           string `json:"ip_cidr_range"`
	GatewayAddress        string `json:"gateway_address"`
	PrivateIPGoogleAccess bool   `json:"private_ip_google_access"`
	Purpose               string `json:"purpose"`
	CreationTimestamp     string `json:"creation_timestamp"`
	AvailableIPs          int64  `json:"available_ips"`
}

// FirewallPortSpec is one protocol entry of a firewall rule. An empty Ports
// list means every port of Protocol.
type FirewallPortSpec struct {
	Protocol string   `json:"protocol"`
	Ports    []string `json:"ports"`
}

// FirewallRuleRecord is an ingress or egress firewall rule
type FirewallRuleRecord struct {
	Name              string             `json:"name"`
	ID                string             `json:"id"`
	Description       string             `json:"description"`
	Network           string             `json:"network"`
	Direction         string             `json:"direction"`
	Priority          int                `json:"priority"`
	SourceRanges      []string           `json:"source_ranges"`
	TargetTags        []string           `json:"target_tags"`
	Allowed           []FirewallPortSpec `json:"allowed"`
	Denied            []FirewallPortSpec `json:"denied"`
	CreationTimestamp string             `json:"creation_timestamp"`
	Disabled          bool               `json:"disabled"`
}

// RouterRecord is a Cloud Router
type RouterRecord struct {
	Name              string  `json:"name"`
	ID                string  `json:"id"`
	Region            string  `json:"region"`
	Network           string  `json:"network"`
	Description       string  `json:"description"`
	BgpASN            *uint32 `json:"bgp_asn"`
	BgpAdvertiseMode  *string `json:"bgp_advertise_mode"`
	NatCount          int     `json:"nat_count"`
	CreationTimestamp string  `json:"creation_timestamp"`
}

// NatGatewayRecord is one NAT config attached to a router
type NatGatewayRecord struct {
	Name                             string `json:"name"`
	RouterName                       string `json:"router_name"`
	Region                           string `json:"region"`
	NatIPAllocateOption              string `json:"nat_ip_allocate_option"`
	SourceSubnetworkIPRangesToNat    string `json:"source_subnetwork_ip_ranges_to_nat"`
	MinPortsPerVM                    int    `json:"min_ports_per_vm"`
	MaxPortsPerVM                    int    `json:"max_ports_per_vm"`
	EnableEndpointIndependentMapping bool   `json:"enable_endpoint_independent_mapping"`
	LogConfigEnabled                 bool   `json:"log_config_enabled"`
}

// InstanceRecord is a compute instance reduced to its primary interface
type InstanceRecord struct {
	Name              string `json:"name"`
	Zone              string `json:"zone"`
	MachineType       string `json:"machine_type"`
	Status            string `json:"status"`
	InternalIP        string `json:"internal_ip,omitempty"`
	ExternalIP        string `json:"external_ip,omitempty"`
	Network           string `json:"network,omitempty"`
	Subnet            string `json:"subnet,omitempty"`
	CreationTimestamp string `json:"creation_timestamp"`
}

// HasExternalIP reports whether the instance is reachable on a public address
func (i InstanceRecord) HasExternalIP() bool {
	return i.ExternalIP != ""
}

// LastSegment returns the final path element of a resource URL such as
// ".../global/networks/default". Plain names are returned unchanged.
func LastSegment(url string) string {
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' {
			return url[i+1:]
		}
	}
	return url
}
