package runner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/projectdiscovery/netrecon/pkg/export"
	"github.com/projectdiscovery/netrecon/pkg/version"
	envutil "github.com/projectdiscovery/utils/env"
)

var au *aurora.Aurora

const (
	DefaultPorts      = "22,80,443,3389,3306"
	DefaultProbePorts = "80,443"
	DefaultVulnDB     = "vuln_db.json"
)

var (
	VulnDBEnv  = envutil.GetEnvOrDefault("NETRECON_VULN_DB", DefaultVulnDB)
	PortsEnv   = envutil.GetEnvOrDefault("NETRECON_PORTS", DefaultPorts)
	VerboseEnv = envutil.GetEnvOrDefault("NETRECON_VERBOSE", "")
)

// Options contains the configuration options for a reconnaissance run
type Options struct {
	Target        string
	Ports         string
	ProbePorts    string
	DiscoverOnly  bool
	SkipDiscovery bool
	NoOS          bool
	NoIdentity    bool

	DiscoveryWorkers int
	ScanWorkers      int
	HostParallelism  int

	ProbeTimeout   time.Duration
	ConnectTimeout time.Duration
	BannerTimeout  time.Duration
	PingTimeout    time.Duration

	VulnDB    string
	Output    string
	OutputDir string

	ConfigFile string
	Verbose    bool
	Silent     bool
	NoColor    bool
	Version    bool
}

// DefaultOptions returns options holding every flag default
func DefaultOptions() *Options {
	return &Options{
		Ports:            PortsEnv,
		ProbePorts:       DefaultProbePorts,
		DiscoveryWorkers: 200,
		ScanWorkers:      100,
		HostParallelism:  1,
		ProbeTimeout:     time.Second,
		ConnectTimeout:   2 * time.Second,
		BannerTimeout:    2 * time.Second,
		PingTimeout:      2 * time.Second,
		VulnDB:           VulnDBEnv,
		OutputDir:        ".",
	}
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	defaults := DefaultOptions()
	options := &Options{}
	flagSet := goflags.NewFlagSet()

	flagSet.SetDescription(`netrecon discovers live hosts on a local network, scans their TCP ports, grabs banners, guesses the OS and flags known vulnerable versions.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&options.Target, "target", "t", "", "target network in CIDR notation (default: primary local network)"),
	)

	flagSet.CreateGroup("discovery", "Discovery",
		flagSet.StringVarP(&options.ProbePorts, "probe-ports", "pp", defaults.ProbePorts, "tcp ports used for liveness probes"),
		flagSet.BoolVarP(&options.DiscoverOnly, "discover-only", "do", false, "only discover hosts, do not scan ports"),
		flagSet.BoolVarP(&options.SkipDiscovery, "skip-discovery", "sd", false, "scan every address of the target without discovery"),
		flagSet.BoolVar(&options.NoIdentity, "no-identity", false, "skip reverse dns and netbios name lookups"),
		flagSet.IntVar(&options.DiscoveryWorkers, "discovery-workers", defaults.DiscoveryWorkers, "concurrent liveness probes"),
		flagSet.DurationVar(&options.ProbeTimeout, "probe-timeout", defaults.ProbeTimeout, "liveness probe connect timeout"),
	)

	flagSet.CreateGroup("scan", "Scan",
		flagSet.StringVarP(&options.Ports, "ports", "p", defaults.Ports, "ports to scan (e.g. 22,80,8000-8100)"),
		flagSet.BoolVar(&options.NoOS, "no-os", false, "skip ttl based os detection"),
		flagSet.IntVar(&options.ScanWorkers, "scan-workers", defaults.ScanWorkers, "concurrent port connections per host"),
		flagSet.IntVarP(&options.HostParallelism, "host-parallelism", "hp", defaults.HostParallelism, "hosts scanned in parallel"),
		flagSet.DurationVar(&options.ConnectTimeout, "connect-timeout", defaults.ConnectTimeout, "port connect timeout"),
		flagSet.DurationVar(&options.BannerTimeout, "banner-timeout", defaults.BannerTimeout, "banner read timeout"),
		flagSet.DurationVar(&options.PingTimeout, "ping-timeout", defaults.PingTimeout, "icmp echo timeout for os detection"),
		flagSet.StringVarP(&options.VulnDB, "vuln-db", "vd", defaults.VulnDB, "vulnerability signature database (json)"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&options.Output, "output", "o", "", "export results in the given format (json, csv)"),
		flagSet.StringVarP(&options.OutputDir, "output-dir", "od", defaults.OutputDir, "directory for exported results"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&options.ConfigFile, "config", "", "yaml configuration file"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only results"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	// configure aurora for logging
	au = aurora.New(aurora.WithColors(true))

	if isTruthy(VerboseEnv) {
		options.Verbose = true
	}
	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		os.Exit(0)
	}

	if options.ConfigFile != "" {
		if err := options.loadConfigFrom(options.ConfigFile); err != nil {
			gologger.Fatal().Msgf("Could not read config file: %s\n", err)
		}
	}

	if err := options.validate(); err != nil {
		gologger.Fatal().Msgf("Program exiting: %s\n", err)
	}
	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	if au == nil {
		au = aurora.New(aurora.WithColors(true))
	}
	// If the user desires verbose output, show verbose output
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

func (options *Options) validate() error {
	if options.DiscoverOnly && options.SkipDiscovery {
		return errors.New("-discover-only and -skip-discovery are mutually exclusive")
	}
	if options.Output != "" {
		format, err := export.ParseFormat(options.Output)
		if err != nil {
			return err
		}
		options.Output = string(format)
	}
	if options.DiscoveryWorkers <= 0 || options.ScanWorkers <= 0 || options.HostParallelism <= 0 {
		return errors.New("worker counts must be positive")
	}
	for name, timeout := range map[string]time.Duration{
		"probe-timeout":   options.ProbeTimeout,
		"connect-timeout": options.ConnectTimeout,
		"banner-timeout":  options.BannerTimeout,
		"ping-timeout":    options.PingTimeout,
	} {
		if timeout <= 0 {
			return fmt.Errorf("-%s must be positive", name)
		}
	}
	return nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
