// Package export renders run results as JSON, CSV or a console summary.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/projectdiscovery/netrecon/pkg/types"
	fileutil "github.com/projectdiscovery/utils/file"
)

// Format selects the export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat is returned for formats other than json and csv
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat validates a user supplied format name
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
}

// Envelope is the unit written to an export file
type Envelope struct {
	RunID     string             `json:"run_id"`
	Mode      string             `json:"mode"`
	StartedAt time.Time          `json:"started_at"`
	Target    string             `json:"target"`
	Hosts     []types.HostReport `json:"-"`
}

// hostRecord is the flattened JSON shape of a HostReport
type hostRecord struct {
	IP       string                  `json:"ip"`
	MAC      string                  `json:"mac,omitempty"`
	Hostname string                  `json:"hostname,omitempty"`
	Source   string                  `json:"source,omitempty"`
	OS       *types.OSGuess          `json:"os,omitempty"`
	Services []types.PortObservation `json:"services"`
}

func newHostRecord(report types.HostReport) hostRecord {
	record := hostRecord{
		IP:       report.Host.IP.String(),
		MAC:      report.Host.MAC(),
		Hostname: report.Host.Label,
		Source:   report.Host.Source,
		Services: report.Observations,
	}
	if report.OS.HasTTL() {
		guess := report.OS
		record.OS = &guess
	}
	if record.Services == nil {
		record.Services = []types.PortObservation{}
	}
	return record
}

// Write encodes envelope to w in the given format
func Write(w io.Writer, format Format, envelope Envelope) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, envelope)
	case FormatCSV:
		return writeCSV(w, envelope)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func writeJSON(w io.Writer, envelope Envelope) error {
	hosts := make([]hostRecord, 0, len(envelope.Hosts))
	for _, report := range envelope.Hosts {
		hosts = append(hosts, newHostRecord(report))
	}
	document := struct {
		Envelope
		Hosts []hostRecord `json:"hosts"`
	}{Envelope: envelope, Hosts: hosts}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

// FileName returns <mode>_<unix-ts>_<runid>.<format>
func FileName(envelope Envelope, format Format) string {
	mode := envelope.Mode
	if mode == "" {
		mode = "scan"
	}
	name := fmt.Sprintf("%s_%d", mode, envelope.StartedAt.Unix())
	if envelope.RunID != "" {
		name += "_" + envelope.RunID
	}
	return name + "." + string(format)
}

// WriteFile writes envelope into dir, creating it if needed, and returns
// the path of the file
func WriteFile(dir string, envelope Envelope, format Format) (string, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if !fileutil.FolderExists(dir) {
		if err := fileutil.CreateFolder(dir); err != nil {
			return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, FileName(envelope, format))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(file, format, envelope); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
