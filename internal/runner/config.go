package runner

import (
	"fmt"
	"os"
	"time"

	fileutil "github.com/projectdiscovery/utils/file"
)

// fileConfig is the yaml shape of -config. Keys mirror the long flag names.
type fileConfig struct {
	Target           string `yaml:"target"`
	Ports            string `yaml:"ports"`
	ProbePorts       string `yaml:"probe-ports"`
	NoOS             bool   `yaml:"no-os"`
	NoIdentity       bool   `yaml:"no-identity"`
	DiscoveryWorkers int    `yaml:"discovery-workers"`
	ScanWorkers      int    `yaml:"scan-workers"`
	HostParallelism  int    `yaml:"host-parallelism"`
	ProbeTimeout     string `yaml:"probe-timeout"`
	ConnectTimeout   string `yaml:"connect-timeout"`
	BannerTimeout    string `yaml:"banner-timeout"`
	PingTimeout      string `yaml:"ping-timeout"`
	VulnDB           string `yaml:"vuln-db"`
	Output           string `yaml:"output"`
	OutputDir        string `yaml:"output-dir"`
}

func (options *Options) loadConfigFrom(location string) error {
	data, err := os.ReadFile(location)
	if err != nil {
		return err
	}
	var config fileConfig
	if err := fileutil.Unmarshal(fileutil.YAML, data, &config); err != nil {
		return fmt.Errorf("%s: %w", location, err)
	}
	return options.applyConfig(config)
}

// applyConfig fills options still holding their flag default; values given
// on the command line win
func (options *Options) applyConfig(config fileConfig) error {
	defaults := DefaultOptions()

	setString(&options.Target, "", config.Target)
	setString(&options.Ports, defaults.Ports, config.Ports)
	setString(&options.ProbePorts, defaults.ProbePorts, config.ProbePorts)
	setString(&options.VulnDB, defaults.VulnDB, config.VulnDB)
	setString(&options.Output, "", config.Output)
	setString(&options.OutputDir, defaults.OutputDir, config.OutputDir)

	setInt(&options.DiscoveryWorkers, defaults.DiscoveryWorkers, config.DiscoveryWorkers)
	setInt(&options.ScanWorkers, defaults.ScanWorkers, config.ScanWorkers)
	setInt(&options.HostParallelism, defaults.HostParallelism, config.HostParallelism)

	options.NoOS = options.NoOS || config.NoOS
	options.NoIdentity = options.NoIdentity || config.NoIdentity

	durations := []struct {
		target *time.Duration
		def    time.Duration
		value  string
	}{
		{&options.ProbeTimeout, defaults.ProbeTimeout, config.ProbeTimeout},
		{&options.ConnectTimeout, defaults.ConnectTimeout, config.ConnectTimeout},
		{&options.BannerTimeout, defaults.BannerTimeout, config.BannerTimeout},
		{&options.PingTimeout, defaults.PingTimeout, config.PingTimeout},
	}
	for _, d := range durations {
		if d.value == "" || *d.target != d.def {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.value, err)
		}
		*d.target = parsed
	}
	return nil
}

func setString(target *string, def, value string) {
	if value != "" && *target == def {
		*target = value
	}
}

func setInt(target *int, def, value int) {
	if value != 0 && *target == def {
		*target = value
	}
}
