package prescan

import (
	"net"

	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/common"
)

// Priority tiers by last octet
const (
	PriorityGateway   = 100
	PriorityReserved  = 90
	PriorityEarlyDHCP = 80
	PriorityDHCPPeak  = 70
	PriorityDHCPPool  = 50
	PriorityLongTail  = 20
	PriorityExcluded  = 0
)

type octetRange struct {
	start, end int
	priority   int
}

var octetRanges = []octetRange{
	{start: 1, end: 1, priority: PriorityGateway},
	{start: 254, end: 254, priority: PriorityGateway},
	{start: 2, end: 5, priority: PriorityReserved},
	{start: 250, end: 253, priority: PriorityReserved},
	{start: 6, end: 10, priority: PriorityEarlyDHCP},
	{start: 50, end: 50, priority: PriorityDHCPPeak},
	{start: 100, end: 100, priority: PriorityDHCPPeak},
	{start: 150, end: 150, priority: PriorityDHCPPeak},
	{start: 51, end: 99, priority: PriorityDHCPPool},
	{start: 101, end: 149, priority: PriorityDHCPPool},
	{start: 151, end: 200, priority: PriorityDHCPPool},
}

// Priority scores ip within network. Non-IPv4 addresses and octets outside
// every known range land in the long tail.
func Priority(ip net.IP, network *net.IPNet) int {
	ip4 := ip.To4()
	if ip4 == nil {
		return PriorityLongTail
	}
	if network != nil {
		if ones, _ := network.Mask.Size(); ones < 31 && common.IsNetworkOrBroadcast(ip4, network) {
			return PriorityExcluded
		}
	}

	last := int(ip4[3])
	for _, r := range octetRanges {
		if last >= r.start && last <= r.end {
			return r.priority
		}
	}
	return PriorityLongTail
}
