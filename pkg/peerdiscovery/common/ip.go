package common

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/projectdiscovery/mapcidr"
)

var (
	// ErrInvalidRange is returned when a target cannot be parsed as an IPv4 CIDR or address
	ErrInvalidRange = errors.New("invalid address range")
	// ErrRangeTooLarge is returned for blocks wider than MinPrefixLength
	ErrRangeTooLarge = errors.New("address range too large")
)

// MinPrefixLength is the widest block accepted for expansion (/16 = 65534 hosts)
const MinPrefixLength = 16

// Range is an IPv4 CIDR block whose iteration yields the usable host addresses
type Range struct {
	network *net.IPNet
}

// ParseRange parses a CIDR ("192.168.1.0/24") or a bare IPv4 address, which is
// treated as a /32. Host bits are masked off.
func ParseRange(target string) (Range, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Range{}, fmt.Errorf("%w: empty target", ErrInvalidRange)
	}
	if !strings.Contains(target, "/") {
		target += "/32"
	}

	ip, network, err := net.ParseCIDR(target)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %s", ErrInvalidRange, target)
	}
	if ip.To4() == nil || strings.Contains(target, ":") {
		return Range{}, fmt.Errorf("%w: %s is not IPv4", ErrInvalidRange, target)
	}
	ones, _ := network.Mask.Size()
	if ones < MinPrefixLength {
		return Range{}, fmt.Errorf("%w: /%d is wider than /%d", ErrRangeTooLarge, ones, MinPrefixLength)
	}

	return Range{network: &net.IPNet{IP: network.IP.To4(), Mask: network.Mask}}, nil
}

// MustParseRange is ParseRange for constants in tests and defaults
func MustParseRange(target string) Range {
	r, err := ParseRange(target)
	if err != nil {
		panic(err)
	}
	return r
}

// Network returns the underlying block
func (r Range) Network() *net.IPNet {
	return r.network
}

// String returns the range in CIDR notation
func (r Range) String() string {
	if r.network == nil {
		return ""
	}
	return r.network.String()
}

// Contains reports whether ip lies inside the block
func (r Range) Contains(ip net.IP) bool {
	return r.network != nil && r.network.Contains(ip)
}

// Addresses returns every usable host address of the block in ascending
// numeric order. Network and broadcast addresses are skipped; /31 and /32
// blocks have neither (RFC 3021) and yield all of their addresses.
func (r Range) Addresses() []net.IP {
	if r.network == nil {
		return []net.IP{}
	}

	ips, err := mapcidr.IPAddresses(r.network.String())
	if err != nil {
		return []net.IP{}
	}

	ones, _ := r.network.Mask.Size()
	pointToPoint := ones >= 31

	usable := make([]net.IP, 0, len(ips))
	for _, ipStr := range ips {
		ip := net.ParseIP(ipStr).To4()
		if ip == nil {
			continue
		}
		if !pointToPoint && IsNetworkOrBroadcast(ip, r.network) {
			continue
		}
		usable = append(usable, ip)
	}
	SortIPs(usable)
	return usable
}

// IsNetworkOrBroadcast checks if an IP is the network or broadcast address.
// For IPv4, it checks both network and broadcast addresses.
// For IPv6, it checks network address and multicast addresses.
func IsNetworkOrBroadcast(ip net.IP, network *net.IPNet) bool {
	if network == nil {
		return false
	}

	if ip.Equal(network.IP) {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		base := network.IP.To4()
		if base == nil || len(network.Mask) != net.IPv4len {
			return false
		}
		broadcast := make(net.IP, net.IPv4len)
		for i := range broadcast {
			broadcast[i] = base[i] | ^network.Mask[i]
		}
		return ip4.Equal(broadcast)
	}

	return ip.IsMulticast()
}

// CompareIP compares two IPs. Returns -1 if ip1 < ip2, 0 if equal, 1 if ip1 > ip2.
// IPv4 always comes before IPv6.
func CompareIP(ip1, ip2 net.IP) int {
	ip1v4 := ip1.To4()
	ip2v4 := ip2.To4()

	switch {
	case ip1v4 != nil && ip2v4 == nil:
		return -1
	case ip1v4 == nil && ip2v4 != nil:
		return 1
	case ip1v4 != nil && ip2v4 != nil:
		ip1, ip2 = ip1v4, ip2v4
	}

	for i := 0; i < len(ip1) && i < len(ip2); i++ {
		if ip1[i] < ip2[i] {
			return -1
		}
		if ip1[i] > ip2[i] {
			return 1
		}
	}

	switch {
	case len(ip1) < len(ip2):
		return -1
	case len(ip1) > len(ip2):
		return 1
	}
	return 0
}

// SortIPs sorts addresses in ascending numeric order in place
func SortIPs(ips []net.IP) {
	sort.Slice(ips, func(i, j int) bool {
		return CompareIP(ips[i], ips[j]) < 0
	})
}
