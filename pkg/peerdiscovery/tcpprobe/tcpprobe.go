// Package tcpprobe classifies a host as reachable by attempting short TCP
// connections to a small, fixed set of ports.
//
// A probe never fails: timeouts, refusals and any other transport error mean
// the attempt on that port did not succeed. A host is Alive as soon as one
// port accepts a connection; ports are tried sequentially in the given order.
package tcpprobe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Status is the outcome of a liveness probe
type Status int

const (
	NotAlive Status = iota
	Alive
)

func (s Status) String() string {
	if s == Alive {
		return "alive"
	}
	return "not-alive"
}

// Result is the outcome of probing a single address
type Result struct {
	IP     net.IP
	Status Status
	// Port is the port that accepted the connection when Status is Alive
	Port int
}

// DefaultPorts are the quick-probe ports tried on every address
var DefaultPorts = []int{80, 443}

// DefaultTimeout bounds every connection attempt
const DefaultTimeout = time.Second

// Options configures the prober
type Options struct {
	Ports   []int
	Timeout time.Duration
}

// Prober performs TCP liveness probes
type Prober struct {
	ports  []int
	dialer *net.Dialer
}

// New creates a prober, filling zero options with defaults
func New(options Options) *Prober {
	ports := options.Ports
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		ports:  append([]int(nil), ports...),
		dialer: &net.Dialer{Timeout: timeout},
	}
}

// Probe tries each quick-probe port in order and stops at the first success
func (p *Prober) Probe(ctx context.Context, ip net.IP) Result {
	result := Result{IP: ip, Status: NotAlive}
	for _, port := range p.ports {
		if ctx.Err() != nil {
			return result
		}
		conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = conn.Close()
		result.Status = Alive
		result.Port = port
		return result
	}
	return result
}
