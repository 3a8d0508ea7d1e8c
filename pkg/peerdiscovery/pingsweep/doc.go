// Package pingsweep sends a single ICMP echo request to a host and reports
// the TTL of the reply.
//
// Echo first tries a raw ICMP socket, which needs root or CAP_NET_RAW, then
// the unprivileged ICMP datagram socket available on Linux (subject to
// net.ipv4.ping_group_range) and macOS. When neither can be opened the error
// wraps ErrUnsupported and callers are expected to fall back to the
// platform ping utility.
//
// Example usage:
//
//	reply, err := pingsweep.Echo(ctx, net.ParseIP("192.168.1.1"), 2*time.Second)
//	if err == nil {
//		fmt.Println(reply.TTL, reply.RTT)
//	}
//
// Limitations:
// - Hosts with ICMP disabled or firewalled will not respond
// - Only IPv4 is supported
// - Windows is not supported; the TTL control message is unavailable there
package pingsweep
