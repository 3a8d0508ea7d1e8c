package discovery

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/arp"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/common"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/tcpprobe"
	"github.com/projectdiscovery/netrecon/pkg/types"
)

type fakeNeighbors struct {
	entries []arp.Entry
	err     error
}

func (f fakeNeighbors) Read(context.Context) (arp.Table, error) {
	if f.err != nil {
		return arp.Table{}, f.err
	}
	return arp.NewTable(f.entries), nil
}

// fakeProber reports alive for the addresses it knows, on the given port
type fakeProber struct {
	mu     sync.Mutex
	alive  map[string]int
	probed map[string]int
}

func newFakeProber(alive map[string]int) *fakeProber {
	return &fakeProber{alive: alive, probed: map[string]int{}}
}

func (f *fakeProber) Probe(_ context.Context, ip net.IP) tcpprobe.Result {
	f.mu.Lock()
	f.probed[ip.String()]++
	f.mu.Unlock()
	if port, ok := f.alive[ip.String()]; ok {
		return tcpprobe.Result{IP: ip, Status: tcpprobe.Alive, Port: port}
	}
	return tcpprobe.Result{IP: ip, Status: tcpprobe.NotAlive}
}

type fakeResolver map[string]string

func (f fakeResolver) Label(_ context.Context, ip net.IP) string {
	return f[ip.String()]
}

func mustMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	mac, err := net.ParseMAC(s)
	if err != nil {
		t.Fatalf("ParseMAC(%s): %v", s, err)
	}
	return mac
}

func TestDiscoverProbeOnly(t *testing.T) {
	tests := []struct {
		name      string
		resolver  fakeResolver
		wantLabel string
	}{
		{name: "label resolved", resolver: fakeResolver{"192.168.1.77": "printer.lan"}, wantLabel: "printer.lan"},
		{name: "label unknown", resolver: fakeResolver{}, wantLabel: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := newFakeProber(map[string]int{"192.168.1.77": 443})
			engine, err := New(Options{
				Neighbors: fakeNeighbors{err: arp.ErrUnsupported},
				Prober:    prober,
				Resolver:  tt.resolver,
			})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			hosts, err := engine.Discover(context.Background(), common.MustParseRange("192.168.1.0/24"))
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if len(hosts) != 1 {
				t.Fatalf("Discover() = %d hosts, want 1", len(hosts))
			}
			host := hosts[0]
			if host.IP.String() != "192.168.1.77" {
				t.Errorf("host IP = %s", host.IP)
			}
			if host.HardwareAddress != nil {
				t.Errorf("host MAC = %s, want unset", host.HardwareAddress)
			}
			if host.Label != tt.wantLabel {
				t.Errorf("host label = %q, want %q", host.Label, tt.wantLabel)
			}
			if host.Source != SourceTCPProbe {
				t.Errorf("host source = %q", host.Source)
			}
			if len(prober.probed) != 254 {
				t.Errorf("probed %d addresses, want 254", len(prober.probed))
			}
			for ip, n := range prober.probed {
				if n != 1 {
					t.Errorf("%s probed %d times", ip, n)
				}
			}
		})
	}
}

func TestDiscoverMergesNeighborTable(t *testing.T) {
	neighbors := fakeNeighbors{entries: []arp.Entry{
		{IP: net.ParseIP("192.168.1.20").To4(), MAC: mustMAC(t, "aa:bb:cc:dd:ee:14")},
		{IP: net.ParseIP("192.168.1.1").To4(), MAC: mustMAC(t, "aa:bb:cc:dd:ee:01")},
		// outside the range
		{IP: net.ParseIP("10.0.0.1").To4(), MAC: mustMAC(t, "aa:bb:cc:dd:ee:02")},
		// network and broadcast addresses of the block
		{IP: net.ParseIP("192.168.1.0").To4(), MAC: mustMAC(t, "aa:bb:cc:dd:ee:03")},
		{IP: net.ParseIP("192.168.1.255").To4(), MAC: mustMAC(t, "aa:bb:cc:dd:ee:04")},
	}}
	prober := newFakeProber(map[string]int{"192.168.1.5": 80, "192.168.1.20": 80})

	var mu sync.Mutex
	var reported []types.Host
	engine, err := New(Options{
		Neighbors:       neighbors,
		Prober:          prober,
		DisableIdentity: true,
		Workers:         16,
		OnResult: func(host types.Host) {
			mu.Lock()
			reported = append(reported, host)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	hosts, err := engine.Discover(context.Background(), common.MustParseRange("192.168.1.0/24"))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []struct {
		ip, mac, source string
	}{
		{ip: "192.168.1.1", mac: "aa:bb:cc:dd:ee:01", source: SourceNeighborTable},
		{ip: "192.168.1.5", mac: "", source: SourceTCPProbe},
		{ip: "192.168.1.20", mac: "aa:bb:cc:dd:ee:14", source: SourceNeighborTable},
	}
	if len(hosts) != len(want) {
		t.Fatalf("Discover() = %d hosts, want %d", len(hosts), len(want))
	}
	for i, w := range want {
		if hosts[i].IP.String() != w.ip {
			t.Errorf("hosts[%d] = %s, want %s", i, hosts[i].IP, w.ip)
		}
		if hosts[i].MAC() != w.mac {
			t.Errorf("hosts[%d] MAC = %q, want %q", i, hosts[i].MAC(), w.mac)
		}
		if hosts[i].Source != w.source {
			t.Errorf("hosts[%d] source = %q, want %q", i, hosts[i].Source, w.source)
		}
	}

	if _, ok := prober.probed["192.168.1.20"]; ok {
		t.Error("address from the neighbor table was probed")
	}
	if len(reported) != len(want) {
		t.Errorf("OnResult called %d times, want %d", len(reported), len(want))
	}
}

func TestDiscoverNothingAlive(t *testing.T) {
	engine, err := New(Options{
		Neighbors:       fakeNeighbors{err: errors.New("permission denied")},
		Prober:          newFakeProber(nil),
		DisableIdentity: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	hosts, err := engine.Discover(context.Background(), common.MustParseRange("10.1.2.0/29"))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(hosts) != 0 {
		t.Errorf("Discover() = %v, want no hosts", hosts)
	}
}

func TestNewRejectsNegativeWorkers(t *testing.T) {
	if _, err := New(Options{Workers: -1}); err == nil {
		t.Error("New() with negative workers should fail")
	}
}
