package runner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	sliceutil "github.com/projectdiscovery/utils/slice"
)

// ParsePorts parses a comma separated list of ports and a-b ranges into a
// sorted list of distinct ports
func ParsePorts(value string) ([]int, error) {
	var ports []int
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		low, high, isRange := strings.Cut(item, "-")
		start, err := parsePort(low)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parsePort(high); err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("invalid port range %q", item)
			}
		}
		for port := start; port <= end; port++ {
			ports = append(ports, port)
		}
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("no ports in %q", value)
	}

	ports = sliceutil.Dedupe(ports)
	sort.Ints(ports)
	return ports, nil
}

func parsePort(value string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", value)
	}
	return port, nil
}
