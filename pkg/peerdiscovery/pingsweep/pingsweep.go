package pingsweep

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"
)

var (
	// ErrUnsupported is returned when no ICMP socket with TTL reporting can be opened
	ErrUnsupported = errors.New("icmp echo not available")
	// ErrNoReply is returned when the echo timed out
	ErrNoReply = errors.New("no echo reply")
)

// Socket networks tried by Echo, in order
const (
	NetworkRaw      = "ip4:icmp"
	NetworkDatagram = "udp4"
)

// Reply is a received echo reply
type Reply struct {
	IP  net.IP
	TTL int
	RTT time.Duration
}

var payload = []byte("netrecon-echo")

var sequence atomic.Uint32

// nextEcho returns an identifier and sequence number unique within the
// process so concurrent raw sockets can tell their replies apart
func nextEcho() (id, seq int) {
	n := sequence.Add(1)
	return (os.Getpid() ^ int(n>>16)) & 0xffff, int(n & 0xffff)
}

// Echo sends one echo request to ip and waits up to timeout for the reply
func Echo(ctx context.Context, ip net.IP, timeout time.Duration) (Reply, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return Reply{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrUnsupported, ip)
	}

	var lastErr error
	for _, network := range []string{NetworkRaw, NetworkDatagram} {
		reply, err := EchoWith(ctx, network, ip4, timeout)
		if err == nil || !errors.Is(err, ErrUnsupported) {
			return reply, err
		}
		lastErr = err
	}
	return Reply{}, lastErr
}

// EchoWith sends one echo request over a specific socket network
func EchoWith(ctx context.Context, network string, ip net.IP, timeout time.Duration) (Reply, error) {
	if network != NetworkRaw && network != NetworkDatagram {
		return Reply{}, fmt.Errorf("%w: unknown network %q", ErrUnsupported, network)
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return echo(ctx, network, ip, deadline)
}

func sourceIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
