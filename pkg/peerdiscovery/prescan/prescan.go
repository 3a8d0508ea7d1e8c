package prescan

import (
	"net"
	"sort"

	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/common"
)

// Order returns a copy of ips sorted by descending priority, ties broken by
// ascending address. The input slice is not modified.
func Order(ips []net.IP, network *net.IPNet) []net.IP {
	type scored struct {
		ip       net.IP
		priority int
	}
	prioritized := make([]scored, 0, len(ips))
	for _, ip := range ips {
		prioritized = append(prioritized, scored{ip: ip, priority: Priority(ip, network)})
	}

	sort.SliceStable(prioritized, func(i, j int) bool {
		if prioritized[i].priority != prioritized[j].priority {
			return prioritized[i].priority > prioritized[j].priority
		}
		return common.CompareIP(prioritized[i].ip, prioritized[j].ip) < 0
	})

	ordered := make([]net.IP, len(prioritized))
	for i, p := range prioritized {
		ordered[i] = p.ip
	}
	return ordered
}
