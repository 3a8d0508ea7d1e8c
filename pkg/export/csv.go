package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/projectdiscovery/netrecon/pkg/types"
)

// CSVBannerLimit truncates banners in CSV rows
const CSVBannerLimit = 200

// CSVHeader lists the CSV columns, one row per port observation
var CSVHeader = []string{"ip", "mac", "hostname", "os_guess", "ttl", "port", "state", "rtt_ms", "banner", "error", "vulns"}

func writeCSV(w io.Writer, envelope Envelope) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, report := range envelope.Hosts {
		hostFields := []string{
			report.Host.IP.String(),
			report.Host.MAC(),
			report.Host.Label,
			report.OS.Label,
			ttlField(report.OS),
		}
		// hosts without observations (discover mode) still get a row
		if len(report.Observations) == 0 {
			row := append(append([]string{}, hostFields...), "", "", "", "", "", "[]")
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
			continue
		}
		for _, observation := range report.Observations {
			vulns, err := vulnsField(observation.Findings)
			if err != nil {
				return err
			}
			row := append(append([]string{}, hostFields...),
				strconv.Itoa(observation.Port),
				string(observation.State),
				rttField(observation.RTT),
				Truncate(observation.Banner, CSVBannerLimit),
				observation.ErrorDetail,
				vulns,
			)
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv export: %w", err)
	}
	return nil
}

func ttlField(guess types.OSGuess) string {
	if !guess.HasTTL() {
		return ""
	}
	return strconv.Itoa(*guess.TTL)
}

func rttField(rtt *float64) string {
	if rtt == nil {
		return ""
	}
	return strconv.FormatFloat(*rtt, 'f', 2, 64)
}

func vulnsField(findings []types.Finding) (string, error) {
	if findings == nil {
		findings = []types.Finding{}
	}
	data, err := json.Marshal(findings)
	if err != nil {
		return "", fmt.Errorf("failed to encode findings: %w", err)
	}
	return string(data), nil
}

// Truncate cuts s to at most limit runes
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
