// Package portscan connects to a set of TCP ports on one host, classifies
// each port and grabs a banner from the ones that accept.
//
// Every requested port yields exactly one observation. Transport failures
// are encoded into the observation state and never returned as errors.
package portscan

import (
	"context"
	"errors"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/projectdiscovery/netrecon/pkg/types"
	"github.com/projectdiscovery/netrecon/pkg/vulndb"
	"github.com/projectdiscovery/netrecon/pkg/workpool"
	sliceutil "github.com/projectdiscovery/utils/slice"
)

const (
	DefaultConnectTimeout = 2 * time.Second
	DefaultBannerTimeout  = 2 * time.Second
	DefaultWorkers        = 100
	// MaxBannerSize is the most bytes read from an open port
	MaxBannerSize = 1024
)

// DefaultHTTPPorts receive a HEAD request before the banner read
var DefaultHTTPPorts = []int{80, 8080, 8000, 443}

const headRequest = "HEAD / HTTP/1.0\r\nHost: local\r\n\r\n"

// Options configures a Scanner
type Options struct {
	ConnectTimeout time.Duration
	BannerTimeout  time.Duration
	Workers        int
	HTTPPorts      []int
	// Database is matched against every banner; nil disables matching
	Database *vulndb.Database
	// OnResult is called for every open port as soon as it is observed
	OnResult func(types.PortObservation)
}

// Scanner is safe for concurrent use; each Scan owns its own worker pool
type Scanner struct {
	options   Options
	dialer    *net.Dialer
	httpPorts map[int]struct{}
}

// New creates a scanner, filling zero options with defaults
func New(options Options) *Scanner {
	if options.ConnectTimeout <= 0 {
		options.ConnectTimeout = DefaultConnectTimeout
	}
	if options.BannerTimeout <= 0 {
		options.BannerTimeout = DefaultBannerTimeout
	}
	if options.Workers <= 0 {
		options.Workers = DefaultWorkers
	}
	if options.HTTPPorts == nil {
		options.HTTPPorts = DefaultHTTPPorts
	}

	httpPorts := make(map[int]struct{}, len(options.HTTPPorts))
	for _, port := range options.HTTPPorts {
		httpPorts[port] = struct{}{}
	}
	return &Scanner{
		options:   options,
		dialer:    &net.Dialer{Timeout: options.ConnectTimeout},
		httpPorts: httpPorts,
	}
}

// Scan probes every distinct port of ports on ip and returns the
// observations sorted by port
func (s *Scanner) Scan(ctx context.Context, ip net.IP, ports []int) []types.PortObservation {
	ports = sliceutil.Dedupe(ports)
	observations, err := workpool.Map(ctx, s.options.Workers, ports, func(ctx context.Context, port int) types.PortObservation {
		observation := s.scanPort(ctx, ip, port)
		if observation.IsOpen() && s.options.OnResult != nil {
			s.options.OnResult(observation)
		}
		return observation
	})
	if err != nil {
		// the pool could not start; report every port as failed rather than drop it
		observations = make([]types.PortObservation, 0, len(ports))
		for _, port := range ports {
			observations = append(observations, types.PortObservation{
				IP: ip, Port: port, State: types.StateError, ErrorDetail: err.Error(),
			})
		}
	}
	types.SortObservations(observations)
	return observations
}

func (s *Scanner) scanPort(ctx context.Context, ip net.IP, port int) types.PortObservation {
	observation := types.PortObservation{IP: ip, Port: port}

	start := time.Now()
	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(port)))
	if err != nil {
		observation.State, observation.ErrorDetail = Classify(err)
		return observation
	}
	defer func() {
		_ = conn.Close()
	}()

	rtt := roundMillis(time.Since(start))
	observation.State = types.StateOpen
	observation.RTT = &rtt

	observation.Banner = s.grabBanner(conn, port)
	if observation.Banner != "" {
		if findings := s.options.Database.Match(observation.Banner); len(findings) > 0 {
			observation.Findings = findings
		}
	}
	return observation
}

// grabBanner reads the first bytes the service sends, after a HEAD request
// on web ports. Any failure leaves the banner empty.
func (s *Scanner) grabBanner(conn net.Conn, port int) string {
	if err := conn.SetDeadline(time.Now().Add(s.options.BannerTimeout)); err != nil {
		return ""
	}
	if _, ok := s.httpPorts[port]; ok {
		// a failed write still leaves the read worth trying
		_, _ = conn.Write([]byte(headRequest))
	}
	buf := make([]byte, MaxBannerSize)
	n, _ := conn.Read(buf)
	if n <= 0 {
		return ""
	}
	return CleanBanner(buf[:n])
}

// CleanBanner drops invalid UTF-8 and surrounding whitespace
func CleanBanner(data []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
}

// Classify maps a dial error to a port state and, for StateError, a detail
func Classify(err error) (types.PortState, string) {
	switch {
	case err == nil:
		return types.StateOpen, ""
	case isTimeout(err):
		return types.StateFiltered, ""
	case isConnectionRefused(err):
		return types.StateClosed, ""
	default:
		return types.StateError, err.Error()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func roundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
