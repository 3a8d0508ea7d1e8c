package portscan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/projectdiscovery/netrecon/pkg/types"
	"github.com/projectdiscovery/netrecon/pkg/vulndb"
)

var loopback = net.ParseIP("127.0.0.1")

// serve accepts connections and answers each one with banner. When received
// is non-nil the first request bytes of every connection are sent on it.
func serve(t *testing.T, banner string, received chan<- string) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer func() {
					_ = conn.Close()
				}()
				if received != nil {
					_ = conn.SetReadDeadline(time.Now().Add(time.Second))
					buf := make([]byte, 256)
					n, _ := conn.Read(buf)
					received <- string(buf[:n])
				}
				if banner != "" {
					_, _ = conn.Write([]byte(banner))
				}
			}(conn)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

// refusedPorts returns n distinct loopback ports with nothing listening on them
func refusedPorts(t *testing.T, n int) []int {
	t.Helper()
	listeners := make([]net.Listener, 0, n)
	ports := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		listeners = append(listeners, ln)
		ports = append(ports, ln.Addr().(*net.TCPAddr).Port)
	}
	for _, ln := range listeners {
		_ = ln.Close()
	}
	return ports
}

func TestScanOpenAndClosed(t *testing.T) {
	open := serve(t, "Apache/2.4.1\r\n", nil)
	closed := refusedPorts(t, 1)[0]

	db := vulndb.New(vulndb.Signature{Product: "Apache", VulnerableVersions: []string{"2.4.1"}, Notes: "CVE-X"})

	var mu sync.Mutex
	var reported []types.PortObservation
	scanner := New(Options{
		Database:      db,
		BannerTimeout: time.Second,
		OnResult: func(o types.PortObservation) {
			mu.Lock()
			reported = append(reported, o)
			mu.Unlock()
		},
	})

	observations := scanner.Scan(context.Background(), loopback, []int{open, closed})
	if len(observations) != 2 {
		t.Fatalf("Scan() = %d observations, want 2", len(observations))
	}

	byPort := map[int]types.PortObservation{}
	for _, o := range observations {
		byPort[o.Port] = o
	}

	c := byPort[closed]
	if c.State != types.StateClosed {
		t.Errorf("closed port state = %s, want closed (%s)", c.State, c.ErrorDetail)
	}
	if c.Banner != "" || len(c.Findings) != 0 || c.RTT != nil {
		t.Errorf("closed port carries data: %+v", c)
	}

	o := byPort[open]
	if o.State != types.StateOpen {
		t.Fatalf("open port state = %s (%s)", o.State, o.ErrorDetail)
	}
	if o.RTT == nil || *o.RTT < 0 {
		t.Errorf("open port RTT = %v, want non-negative", o.RTT)
	}
	if !strings.Contains(o.Banner, "Apache/2.4.1") {
		t.Errorf("open port banner = %q", o.Banner)
	}
	if len(o.Findings) != 1 || o.Findings[0].Version != "2.4.1" {
		t.Errorf("open port findings = %+v", o.Findings)
	}

	if len(reported) != 1 || reported[0].Port != open {
		t.Errorf("OnResult reported %+v, want only the open port", reported)
	}
}

func TestScanSendsHeadOnHTTPPorts(t *testing.T) {
	received := make(chan string, 1)
	port := serve(t, "HTTP/1.0 200 OK\r\nServer: test\r\n\r\n", received)

	scanner := New(Options{HTTPPorts: []int{port}, BannerTimeout: time.Second})
	observations := scanner.Scan(context.Background(), loopback, []int{port})

	select {
	case request := <-received:
		if !strings.HasPrefix(request, "HEAD / HTTP/1.0\r\n") {
			t.Errorf("request = %q, want HEAD", request)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server saw no request")
	}
	if len(observations) != 1 || !strings.HasPrefix(observations[0].Banner, "HTTP/1.0 200 OK") {
		t.Errorf("observations = %+v", observations)
	}
}

func TestScanSilentService(t *testing.T) {
	port := serve(t, "", nil)

	scanner := New(Options{BannerTimeout: 200 * time.Millisecond, Database: vulndb.New()})
	observations := scanner.Scan(context.Background(), loopback, []int{port})
	if len(observations) != 1 {
		t.Fatalf("Scan() = %d observations", len(observations))
	}
	if observations[0].State != types.StateOpen || observations[0].Banner != "" || observations[0].Findings != nil {
		t.Errorf("observation = %+v, want open without banner", observations[0])
	}
}

func TestScanOneObservationPerPort(t *testing.T) {
	open := serve(t, "SSH-2.0-OpenSSH_9.6\r\n", nil)
	ports := append(refusedPorts(t, 20), open, open)

	observations := New(Options{Workers: 4, BannerTimeout: time.Second}).Scan(context.Background(), loopback, ports)
	if len(observations) != 21 {
		t.Fatalf("Scan() = %d observations, want 21", len(observations))
	}
	seen := map[int]struct{}{}
	for i, o := range observations {
		if _, ok := seen[o.Port]; ok {
			t.Errorf("port %d reported twice", o.Port)
		}
		seen[o.Port] = struct{}{}
		if i > 0 && observations[i-1].Port > o.Port {
			t.Errorf("observations not sorted at %d", i)
		}
	}
}

func TestScanCancelledContext(t *testing.T) {
	ports := refusedPorts(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	observations := New(Options{}).Scan(ctx, loopback, ports)
	if len(observations) != len(ports) {
		t.Fatalf("Scan() = %d observations, want %d", len(observations), len(ports))
	}
	for _, o := range observations {
		if o.IsOpen() {
			t.Errorf("port %d open after cancel", o.Port)
		}
	}
}

func TestConcurrentScansAreIndependent(t *testing.T) {
	first := serve(t, "Apache/2.4.1", nil)
	second := serve(t, "nginx/1.24.0", nil)
	closed := refusedPorts(t, 1)[0]
	ports := []int{first, second, closed}

	scanner := New(Options{BannerTimeout: time.Second})
	results := make([][]types.PortObservation, 4)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = scanner.Scan(context.Background(), loopback, ports)
		}(i)
	}
	wg.Wait()

	for i, observations := range results {
		if len(observations) != 3 {
			t.Fatalf("scan %d returned %d observations", i, len(observations))
		}
		for _, o := range observations {
			switch o.Port {
			case first:
				if o.Banner != "Apache/2.4.1" {
					t.Errorf("scan %d: port %d banner = %q", i, o.Port, o.Banner)
				}
			case second:
				if o.Banner != "nginx/1.24.0" {
					t.Errorf("scan %d: port %d banner = %q", i, o.Port, o.Banner)
				}
			case closed:
				if o.State != types.StateClosed {
					t.Errorf("scan %d: port %d state = %s", i, o.Port, o.State)
				}
			}
		}
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantState  types.PortState
		wantDetail string
	}{
		{name: "success", err: nil, wantState: types.StateOpen},
		{name: "net timeout", err: &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}, wantState: types.StateFiltered},
		{name: "context deadline", err: fmt.Errorf("dial: %w", context.DeadlineExceeded), wantState: types.StateFiltered},
		{name: "other", err: errors.New("no route to host"), wantState: types.StateError, wantDetail: "no route to host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, detail := Classify(tt.err)
			if state != tt.wantState || detail != tt.wantDetail {
				t.Errorf("Classify() = (%s, %q), want (%s, %q)", state, detail, tt.wantState, tt.wantDetail)
			}
		})
	}
}

func TestCleanBanner(t *testing.T) {
	got := CleanBanner([]byte("  \xffSSH-2.0-OpenSSH_8.9\r\n"))
	if got != "SSH-2.0-OpenSSH_8.9" {
		t.Errorf("CleanBanner() = %q", got)
	}
}
