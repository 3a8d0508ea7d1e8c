//go:build !windows

package arp

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	osutils "github.com/projectdiscovery/utils/os"
)

const procNetARP = "/proc/net/arp"

// readLocalARPTable reads the local ARP table (Linux, macOS and the BSDs)
func readLocalARPTable(ctx context.Context) ([]Entry, error) {
	if osutils.IsLinux() {
		return readLinuxARPTable()
	}
	return readBSDARPTable(ctx)
}

// readLinuxARPTable reads ARP table from /proc/net/arp
func readLinuxARPTable() ([]Entry, error) {
	data, err := os.ReadFile(procNetARP)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", procNetARP, err)
	}
	return parseProcNetARP(string(data)), nil
}

// readBSDARPTable reads ARP table using 'arp -an'
func readBSDARPTable(ctx context.Context) ([]Entry, error) {
	if _, err := exec.LookPath("arp"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	output, err := exec.CommandContext(ctx, "arp", "-an").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute arp -an: %w", err)
	}
	return parseBSDArpOutput(string(output)), nil
}
