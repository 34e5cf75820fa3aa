package network

import "testing"

func TestAvailableIPs(t *testing.T) {
	tests := []struct {
		cidr string
		want int64
	}{
		{"10.0.0.0/24", 253},
		{"10.128.0.0/20", 4093},
		{"10.0.0.0/8", 16777213},
		{"192.168.1.17/28", 13},
		{"10.0.0.0/29", 5},
		{"10.0.0.0/30", 1},
		{"10.0.0.0/31", 0},
		{"10.0.0.1/32", 0},
		{"0.0.0.0/0", 4294967293},
		{"", 0},
		{"not-a-cidr", 0},
		{"10.0.0.0/33", 0},
		{"10.0.0.0", 0},
		{"fd00::/64", 0},
		{"10.0.0.0/255.255.255.0", 253},
		{"10.128.0.0/255.255.240.0", 4093},
		{"10.0.0.0/255.255.255.255", 0},
		{"10.0.0.0/0.0.0.0", 4294967293},
		{"10.0.0.0/255.0.255.0", 0},
		{"10.0.0.0/255.255.255", 0},
		{"fd00::/255.255.255.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			if got := AvailableIPs(tt.cidr); got != tt.want {
				t.Errorf("AvailableIPs(%q) = %d, want %d", tt.cidr, got, tt.want)
			}
		})
	}
}

func TestLastSegment(t *testing.T) {
	tests := map[string]string{
		"https://www.googleapis.com/compute/v1/projects/p/global/networks/default": "default",
		"zones/us-central1-a": "us-central1-a",
		"default":             "default",
		"":                    "",
		"trailing/":           "",
	}
	for in, want := range tests {
		if got := LastSegment(in); got != want {
			t.Errorf("LastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
