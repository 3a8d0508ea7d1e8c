// Package discovery finds live hosts in an address range.
//
// Addresses present in the local neighbor table are accepted without a
// probe. Every other usable address is probed over TCP, most likely
// addresses first, through a bounded worker pool. Accepted hosts are then
// enriched with a hardware address and a label and returned in ascending
// address order.
package discovery

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/arp"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/common"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/identity"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/prescan"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/tcpprobe"
	"github.com/projectdiscovery/netrecon/pkg/types"
	"github.com/projectdiscovery/netrecon/pkg/workpool"
	mapsutil "github.com/projectdiscovery/utils/maps"
)

// Sources recorded on discovered hosts
const (
	SourceNeighborTable = "arp"
	SourceTCPProbe      = "tcp probe"
)

// DefaultWorkers bounds outstanding liveness probes
const DefaultWorkers = 200

// NeighborSource reads the local neighbor table
type NeighborSource interface {
	Read(ctx context.Context) (arp.Table, error)
}

// Prober classifies a single address as alive or not
type Prober interface {
	Probe(ctx context.Context, ip net.IP) tcpprobe.Result
}

// Resolver returns a best-effort label for an address
type Resolver interface {
	Label(ctx context.Context, ip net.IP) string
}

// Options configures an Engine. Nil collaborators get the platform defaults.
type Options struct {
	Neighbors NeighborSource
	Prober    Prober
	Resolver  Resolver
	// DisableIdentity skips label resolution
	DisableIdentity bool
	Workers         int
	// OnResult is called once per accepted address, before enrichment
	OnResult func(types.Host)
}

// Engine is the host discovery engine
type Engine struct {
	options Options
}

// New creates a discovery engine
func New(options Options) (*Engine, error) {
	if options.Workers < 0 {
		return nil, errors.New("discovery workers must not be negative")
	}
	if options.Workers == 0 {
		options.Workers = DefaultWorkers
	}
	if options.Neighbors == nil {
		options.Neighbors = arp.NewReader()
	}
	if options.Prober == nil {
		options.Prober = tcpprobe.New(tcpprobe.Options{})
	}
	if options.Resolver == nil && !options.DisableIdentity {
		options.Resolver = identity.New(identity.Options{})
	}
	return &Engine{options: options}, nil
}

// Discover returns the live hosts of r sorted by address. A cancelled
// context stops probing early and returns what was accepted so far along
// with the context error.
func (e *Engine) Discover(ctx context.Context, r common.Range) ([]types.Host, error) {
	// accepted maps an address to the source that found it
	accepted := mapsutil.NewSyncLockMap[string, string]()
	var acceptMu sync.Mutex
	accept := func(ip net.IP, source string) {
		key := ip.String()
		acceptMu.Lock()
		if accepted.Has(key) {
			acceptMu.Unlock()
			return
		}
		_ = accepted.Set(key, source)
		acceptMu.Unlock()
		if e.options.OnResult != nil {
			e.options.OnResult(types.Host{IP: ip, Source: source})
		}
	}

	// passive phase
	ones, _ := r.Network().Mask.Size()
	for _, entry := range e.readNeighbors(ctx).Within(r) {
		if ones < 31 && common.IsNetworkOrBroadcast(entry.IP, r.Network()) {
			continue
		}
		accept(entry.IP, SourceNeighborTable)
	}

	// active phase
	var pending []net.IP
	for _, ip := range r.Addresses() {
		if !accepted.Has(ip.String()) {
			pending = append(pending, ip)
		}
	}
	pending = prescan.Order(pending, r.Network())

	err := workpool.Each(ctx, e.options.Workers, pending, func(ctx context.Context, ip net.IP) {
		if result := e.options.Prober.Probe(ctx, ip); result.Status == tcpprobe.Alive {
			accept(ip, SourceTCPProbe)
		}
	})
	if err != nil {
		return nil, err
	}

	var hosts []types.Host
	_ = accepted.Iterate(func(key, source string) error {
		hosts = append(hosts, types.Host{IP: net.ParseIP(key).To4(), Source: source})
		return nil
	})

	hosts, err = e.enrich(ctx, hosts)
	if err != nil {
		return nil, err
	}
	sortHosts(hosts)
	return hosts, ctx.Err()
}

// readNeighbors never fails: an unavailable table degrades to probe-only discovery
func (e *Engine) readNeighbors(ctx context.Context) arp.Table {
	table, err := e.options.Neighbors.Read(ctx)
	if err != nil {
		gologger.Verbose().Msgf("neighbor table unavailable, probing only: %v", err)
		return arp.Table{}
	}
	return table
}

// enrich re-reads the neighbor table, which probing has usually populated,
// and resolves labels concurrently
func (e *Engine) enrich(ctx context.Context, hosts []types.Host) ([]types.Host, error) {
	if len(hosts) == 0 {
		return []types.Host{}, nil
	}
	table := e.readNeighbors(ctx)

	return workpool.Map(ctx, e.options.Workers, hosts, func(ctx context.Context, host types.Host) types.Host {
		host.HardwareAddress = table.Lookup(host.IP)
		if e.options.Resolver != nil && ctx.Err() == nil {
			host.Label = e.options.Resolver.Label(ctx, host.IP)
		}
		return host
	})
}

func sortHosts(hosts []types.Host) {
	sort.Slice(hosts, func(i, j int) bool {
		return common.CompareIP(hosts[i].IP, hosts[j].IP) < 0
	})
}
