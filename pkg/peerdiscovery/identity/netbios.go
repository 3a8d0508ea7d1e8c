package identity

import (
	"bufio"
	"context"
	"net"
	"os/exec"
	"strings"

	osutils "github.com/projectdiscovery/utils/os"
)

// NetBIOSName queries the NetBIOS name table of ip through the platform tool
// (nbtstat on Windows, nmblookup from samba elsewhere). A missing tool or a
// failed query yields "".
func NetBIOSName(ctx context.Context, ip net.IP) string {
	name, args := netbiosCommand(ip)
	if _, err := exec.LookPath(name); err != nil {
		return ""
	}
	// both tools exit non-zero for partial answers, so the output is parsed regardless
	output, _ := exec.CommandContext(ctx, name, args...).Output()
	return parseNetBIOSOutput(string(output))
}

func netbiosCommand(ip net.IP) (string, []string) {
	if osutils.IsWindows() {
		return "nbtstat", []string{"-A", ip.String()}
	}
	return "nmblookup", []string{"-A", ip.String()}
}

// parseNetBIOSOutput returns the workstation or server name from a name
// table listing:
//
//	WORKSTATION-7   <00> -         B <ACTIVE>
//	WORKSTATION-7   <20> -         B <ACTIVE>
func parseNetBIOSOutput(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "<00>") && !strings.Contains(line, "<20>") {
			continue
		}
		for _, field := range strings.Fields(line) {
			if strings.HasPrefix(field, "<") {
				break
			}
			return field
		}
	}
	return ""
}
