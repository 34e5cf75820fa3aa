package network

import (
	"math/bits"
	"net/netip"
	"strings"
)

// reservedAddresses are the network, broadcast and gateway addresses of a subnet
const reservedAddresses = 3

// AvailableIPs returns the usable IPv4 addresses of cidr: the address count
// minus the reserved addresses, floored at zero. Host bits are ignored and
// the prefix may be written as a dotted netmask (10.0.0.0/255.255.255.0).
// Malformed or non-IPv4 input yields 0.
func AvailableIPs(cidr string) int64 {
	prefix, err := parseIPv4Prefix(cidr)
	if err != nil {
		return 0
	}

	total := int64(1) << (32 - prefix.Bits())
	if total <= reservedAddresses {
		return 0
	}
	return total - reservedAddresses
}

type cidrError string

func (e cidrError) Error() string { return "invalid IPv4 CIDR " + string(e) }

func parseIPv4Prefix(cidr string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if addr, mask, ok := strings.Cut(cidr, "/"); ok && strings.Contains(mask, ".") {
		prefix, err = netmaskPrefix(addr, mask)
	}
	if err != nil || !prefix.Addr().Is4() {
		return netip.Prefix{}, cidrError(cidr)
	}
	return prefix, nil
}

func netmaskPrefix(addr, mask string) (netip.Prefix, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Prefix{}, err
	}
	m, err := netip.ParseAddr(mask)
	if err != nil || !m.Is4() {
		return netip.Prefix{}, cidrError(mask)
	}
	b := m.As4()
	host := ^(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	// The host part of a mask must be a run of low bits
	if host&(host+1) != 0 {
		return netip.Prefix{}, cidrError(mask)
	}
	return netip.PrefixFrom(a, 32-bits.OnesCount32(host)), nil
}
