package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/netrecon/pkg/types"
)

// SummaryBannerLimit truncates banners in the console summary
const SummaryBannerLimit = 120

// PrintSummary writes the per-host console summary: identity, OS guess and
// open ports with their findings
func PrintSummary(w io.Writer, report types.HostReport, au *aurora.Aurora) {
	host := report.Host
	fmt.Fprintf(w, "\n%s\n", au.Bold(au.Cyan(fmt.Sprintf("=== %s ===", host.IP))))
	if mac := host.MAC(); mac != "" {
		fmt.Fprintf(w, "MAC: %s\n", mac)
	}
	if host.Label != "" {
		fmt.Fprintf(w, "Name: %s\n", host.Label)
	}
	if report.OS.HasTTL() {
		fmt.Fprintf(w, "OS: %s (TTL=%d)\n", report.OS.Label, *report.OS.TTL)
	}

	open := report.OpenPorts()
	if len(open) == 0 {
		fmt.Fprintln(w, au.Gray(12, " -> no open ports detected"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "PORT\tSTATE\tRTT(ms)\tBANNER")
	for _, observation := range open {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			observation.Port,
			observation.State,
			rttField(observation.RTT),
			Truncate(OneLine(observation.Banner), SummaryBannerLimit),
		)
	}
	_ = tw.Flush()

	for _, observation := range open {
		for _, finding := range observation.Findings {
			fmt.Fprintln(w, au.Red(VulnLine(observation.Port, finding)))
		}
	}
}

// VulnLine formats a finding the way progress output and the summary show it
func VulnLine(port int, finding types.Finding) string {
	return fmt.Sprintf("    !!! VULN [%d]: %s %s - %s", port, finding.Product, finding.Version, finding.Notes)
}

// OneLine replaces line breaks and tabs with spaces
func OneLine(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '\r' || r == '\n' || r == '\t' {
			out[i] = ' '
		}
	}
	return string(out)
}
