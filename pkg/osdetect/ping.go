package osdetect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	osutils "github.com/projectdiscovery/utils/os"
)

var ttlPattern = regexp.MustCompile(`(?i)ttl[=:](\d+)`)

// CommandEcho runs the platform ping utility once and reads the TTL from
// its output
func CommandEcho(ctx context.Context, ip net.IP, timeout time.Duration) (int, error) {
	if _, err := exec.LookPath("ping"); err != nil {
		return 0, errors.Join(ErrUnavailable, err)
	}

	// the utility enforces its own wait; this only guards against a hang
	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	// ping exits non-zero on loss, the output is still checked
	output, _ := exec.CommandContext(ctx, "ping", pingArgs(ip, timeout)...).CombinedOutput()
	ttl, ok := parseTTL(string(output))
	if !ok {
		return 0, fmt.Errorf("no ttl in ping output for %s", ip)
	}
	return ttl, nil
}

func pingArgs(ip net.IP, timeout time.Duration) []string {
	ms := int(timeout / time.Millisecond)
	if ms <= 0 {
		ms = 1000
	}
	switch {
	case osutils.IsWindows():
		return []string{"-n", "1", "-w", strconv.Itoa(ms), ip.String()}
	case osutils.IsOSX():
		return []string{"-c", "1", "-W", strconv.Itoa(ms), ip.String()}
	default:
		secs := (ms + 999) / 1000
		return []string{"-c", "1", "-W", strconv.Itoa(secs), ip.String()}
	}
}

func parseTTL(output string) (int, bool) {
	match := ttlPattern.FindStringSubmatch(output)
	if match == nil {
		return 0, false
	}
	ttl, err := strconv.Atoi(match[1])
	if err != nil || ttl <= 0 || ttl > 255 {
		return 0, false
	}
	return ttl, true
}
