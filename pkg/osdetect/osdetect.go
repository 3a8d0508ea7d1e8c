// Package osdetect guesses the operating system family of a host from the
// TTL of a single ICMP echo reply.
package osdetect

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/pingsweep"
	"github.com/projectdiscovery/netrecon/pkg/types"
)

// Labels assigned by Classify
const (
	LabelWindows      = "Windows (estimate)"
	LabelMaybeWindows = "possibly Windows"
	LabelUnix         = "Linux/Unix (estimate)"
	LabelLowTTL       = "network equipment / low TTL"
)

// DefaultTimeout bounds the echo probe
const DefaultTimeout = 2 * time.Second

// Classify maps an observed TTL to a coarse OS label
func Classify(ttl int) string {
	switch {
	case ttl >= 128:
		return LabelWindows
	case ttl >= 100:
		return LabelMaybeWindows
	case ttl >= 64:
		return LabelUnix
	default:
		return LabelLowTTL
	}
}

// Strategy obtains the TTL of an echo reply from ip. ErrUnavailable means
// the strategy could not run and the next one should be tried.
type Strategy func(ctx context.Context, ip net.IP, timeout time.Duration) (int, error)

// ErrUnavailable marks a strategy that cannot run on this host
var ErrUnavailable = errors.New("echo strategy unavailable")

// Options configures a Detector
type Options struct {
	Timeout time.Duration
	// Strategies overrides the default socket then ping command chain
	Strategies []Strategy
}

// Detector runs the echo strategies in order until one yields a TTL
type Detector struct {
	timeout    time.Duration
	strategies []Strategy
}

// New creates a detector
func New(options Options) *Detector {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	strategies := options.Strategies
	if len(strategies) == 0 {
		strategies = []Strategy{SocketEcho, CommandEcho}
	}
	return &Detector{timeout: timeout, strategies: strategies}
}

// Guess probes ip once and classifies the reply. No reply yields an empty
// guess; Guess never fails.
func (d *Detector) Guess(ctx context.Context, ip net.IP) types.OSGuess {
	for _, strategy := range d.strategies {
		if ctx.Err() != nil {
			break
		}
		ttl, err := strategy(ctx, ip, d.timeout)
		if err == nil {
			return types.OSGuess{TTL: &ttl, Label: Classify(ttl)}
		}
		if !errors.Is(err, ErrUnavailable) {
			gologger.Debug().Msgf("os probe %s: %v", ip, err)
			break
		}
	}
	return types.OSGuess{}
}

// SocketEcho sends the echo from an ICMP socket
func SocketEcho(ctx context.Context, ip net.IP, timeout time.Duration) (int, error) {
	reply, err := pingsweep.Echo(ctx, ip, timeout)
	if err != nil {
		if errors.Is(err, pingsweep.ErrUnsupported) {
			return 0, errors.Join(ErrUnavailable, err)
		}
		return 0, err
	}
	return reply.TTL, nil
}
