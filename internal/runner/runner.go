package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/netrecon/pkg/export"
	"github.com/projectdiscovery/netrecon/pkg/osdetect"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/common"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/discovery"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/identity"
	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/tcpprobe"
	"github.com/projectdiscovery/netrecon/pkg/portscan"
	"github.com/projectdiscovery/netrecon/pkg/types"
	"github.com/projectdiscovery/netrecon/pkg/vulndb"
	"github.com/projectdiscovery/netrecon/pkg/workpool"
	errorutil "github.com/projectdiscovery/utils/errors"
	"github.com/rs/xid"
)

// ErrNoHosts is returned by scan and full runs that found nothing to scan
var ErrNoHosts = errors.New("no hosts discovered")

// Run modes
const (
	ModeDiscover = "discover"
	ModeScan     = "scan"
	ModeFull     = "full"
)

// progressBannerLimit truncates banners in progress lines
const progressBannerLimit = 100

// Runner contains the internal logic of the program
type Runner struct {
	options  *Options
	runID    string
	ports    []int
	database *vulndb.Database
	engine   *discovery.Engine
	scanner  *portscan.Scanner
	detector *osdetect.Detector

	out   io.Writer
	outMu sync.Mutex
}

// New creates a runner. Invalid port lists and an explicitly named but
// unusable vulnerability database are terminal.
func New(options *Options) (*Runner, error) {
	options.configureOutput()

	ports, err := ParsePorts(options.Ports)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("invalid -ports value")
	}
	probePorts, err := ParsePorts(options.ProbePorts)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("invalid -probe-ports value")
	}

	database, err := loadDatabase(options.VulnDB)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		options:  options,
		runID:    xid.New().String(),
		ports:    ports,
		database: database,
		out:      os.Stdout,
	}

	discoveryOptions := discovery.Options{
		Prober:          tcpprobe.New(tcpprobe.Options{Ports: probePorts, Timeout: options.ProbeTimeout}),
		DisableIdentity: options.NoIdentity,
		Workers:         options.DiscoveryWorkers,
		OnResult:        r.onHost,
	}
	if !options.NoIdentity {
		discoveryOptions.Resolver = identity.New(identity.Options{})
	}
	if r.engine, err = discovery.New(discoveryOptions); err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not create discovery engine")
	}

	r.scanner = portscan.New(portscan.Options{
		ConnectTimeout: options.ConnectTimeout,
		BannerTimeout:  options.BannerTimeout,
		Workers:        options.ScanWorkers,
		Database:       database,
		OnResult:       r.onPort,
	})
	if !options.NoOS {
		r.detector = osdetect.New(osdetect.Options{Timeout: options.PingTimeout})
	}
	return r, nil
}

// loadDatabase treats a missing default database as empty; anything the
// user named explicitly must load
func loadDatabase(path string) (*vulndb.Database, error) {
	database, err := vulndb.Load(path)
	if err == nil {
		gologger.Verbose().Msgf("Loaded %d vulnerability signatures from %s", database.Len(), path)
		return database, nil
	}
	if path == DefaultVulnDB {
		if errors.Is(err, os.ErrNotExist) {
			gologger.Warning().Msgf("No vulnerability database at %s, banner matching disabled", path)
		} else {
			gologger.Warning().Msgf("Ignoring vulnerability database: %s", err)
		}
		return vulndb.New(), nil
	}
	return nil, errorutil.NewWithErr(err).Msgf("could not load vulnerability database")
}

// Run executes the run mode selected by the options
func (r *Runner) Run(ctx context.Context) error {
	startedAt := time.Now()

	mode, target, err := r.resolveTarget()
	if err != nil {
		return err
	}
	gologger.Info().Msgf("Run %s: %s mode on %s", r.runID, mode, target)

	hosts, err := r.hosts(ctx, target)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	gologger.Info().Msgf("Found %d hosts", len(hosts))

	var reports []types.HostReport
	if mode == ModeDiscover {
		r.printHosts(hosts)
		reports = make([]types.HostReport, 0, len(hosts))
		for _, host := range hosts {
			reports = append(reports, types.HostReport{Host: host})
		}
	} else {
		if len(hosts) == 0 {
			return ErrNoHosts
		}
		if reports, err = r.scanHosts(ctx, hosts); err != nil {
			return err
		}
	}

	if r.options.Output == "" {
		return nil
	}
	envelope := export.Envelope{
		RunID:     r.runID,
		Mode:      mode,
		StartedAt: startedAt,
		Target:    target.String(),
		Hosts:     reports,
	}
	path, err := export.WriteFile(r.options.OutputDir, envelope, export.Format(r.options.Output))
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("could not export results")
	}
	gologger.Info().Msgf("Exported: %s", path)
	return nil
}

// resolveTarget picks the mode and the address range of the run
func (r *Runner) resolveTarget() (string, common.Range, error) {
	if r.options.Target != "" {
		target, err := common.ParseRange(r.options.Target)
		if err != nil {
			return "", common.Range{}, err
		}
		if r.options.DiscoverOnly {
			return ModeDiscover, target, nil
		}
		return ModeScan, target, nil
	}

	ip, target, err := common.PrimaryNetwork()
	if err != nil {
		return "", common.Range{}, errorutil.NewWithErr(err).Msgf("could not detect the local network, use -target")
	}
	gologger.Info().Msgf("IP: %s Network: %s", ip, target)
	if r.options.DiscoverOnly {
		return ModeDiscover, target, nil
	}
	return ModeFull, target, nil
}

func (r *Runner) hosts(ctx context.Context, target common.Range) ([]types.Host, error) {
	if r.options.SkipDiscovery {
		addresses := target.Addresses()
		hosts := make([]types.Host, 0, len(addresses))
		for _, ip := range addresses {
			hosts = append(hosts, types.Host{IP: ip})
		}
		return hosts, nil
	}

	hosts, err := r.engine.Discover(ctx, target)
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, errorutil.NewWithErr(err).Msgf("discovery failed")
	}
	return hosts, nil
}

// scanHosts scans, fingerprints and summarizes every host, host
// parallelism at a time, and returns the reports sorted by address
func (r *Runner) scanHosts(ctx context.Context, hosts []types.Host) ([]types.HostReport, error) {
	reports, err := workpool.Map(ctx, r.options.HostParallelism, hosts, func(ctx context.Context, host types.Host) types.HostReport {
		gologger.Verbose().Msgf("Scanning %s", host.IP)
		report := types.HostReport{
			Host:         host,
			Observations: r.scanner.Scan(ctx, host.IP, r.ports),
		}
		if r.detector != nil {
			report.OS = r.detector.Guess(ctx, host.IP)
		}

		r.outMu.Lock()
		export.PrintSummary(r.out, report, au)
		r.outMu.Unlock()
		return report
	})
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("scan failed")
	}
	sort.Slice(reports, func(i, j int) bool {
		return common.CompareIP(reports[i].Host.IP, reports[j].Host.IP) < 0
	})
	return reports, nil
}

func (r *Runner) printHosts(hosts []types.Host) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	for _, host := range hosts {
		fmt.Fprintf(r.out, " - %s  MAC:%s  Host:%s\n", host.IP, orDash(host.MAC()), orDash(host.Label))
	}
}

// onHost prints discovery progress
func (r *Runner) onHost(host types.Host) {
	gologger.Silent().Msgf("%s => alive (%s)", au.Green(host.IP.String()), host.Source)
}

// onPort prints scan progress for an open port and its findings
func (r *Runner) onPort(observation types.PortObservation) {
	address := net.JoinHostPort(observation.IP.String(), fmt.Sprint(observation.Port))
	line := fmt.Sprintf("%s %s", au.Bold(address), au.Green("OPEN"))
	if observation.Banner != "" {
		line += " banner: " + export.Truncate(export.OneLine(observation.Banner), progressBannerLimit)
	}
	gologger.Silent().Msg(line)
	for _, finding := range observation.Findings {
		gologger.Silent().Msgf("%s", au.Red(export.VulnLine(observation.Port, finding)))
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
