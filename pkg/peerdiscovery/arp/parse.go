package arp

import (
	"bufio"
	"net"
	"strings"
)

// parseProcNetARP parses the Linux /proc/net/arp format:
//
//	IP address       HW type     Flags       HW address            Mask     Device
//	192.168.1.1      0x1         0x2         aa:bb:cc:dd:ee:ff     *        eth0
func parseProcNetARP(data string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(data))

	// Skip header line
	if !scanner.Scan() {
		return entries
	}

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}

		// flags 0x0 marks an incomplete entry
		if fields[2] == "0x0" {
			continue
		}
		if entry, ok := newEntry(fields[0], fields[3]); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// parseBSDArpOutput parses `arp -an` on macOS and the BSDs:
//
//	? (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]
//	? (192.168.1.7) at (incomplete) on en0 ifscope [ethernet]
func parseBSDArpOutput(output string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ipStart := strings.Index(line, "(")
		ipEnd := strings.Index(line, ")")
		if ipStart == -1 || ipEnd == -1 || ipStart >= ipEnd {
			continue
		}
		ipStr := line[ipStart+1 : ipEnd]

		atIndex := strings.Index(line, " at ")
		if atIndex == -1 {
			continue
		}
		rest := strings.Fields(line[atIndex+4:])
		if len(rest) == 0 {
			continue
		}
		if entry, ok := newEntry(ipStr, rest[0]); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// parseWindowsArpOutput parses `arp -a` on Windows:
//
//	Interface: 192.168.1.100 --- 0xa
//	  Internet Address      Physical Address      Type
//	  192.168.1.1           aa-bb-cc-dd-ee-ff     dynamic
func parseWindowsArpOutput(output string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.Count(fields[0], ".") != 3 {
			continue
		}
		if entry, ok := newEntry(fields[0], fields[1]); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// newEntry validates an address pair, rejecting incomplete, zero and
// broadcast hardware addresses
func newEntry(ipStr, macStr string) (Entry, bool) {
	ip := net.ParseIP(ipStr).To4()
	if ip == nil {
		return Entry{}, false
	}

	mac, err := net.ParseMAC(normalizeMAC(macStr))
	if err != nil {
		return Entry{}, false
	}
	if isZeroMAC(mac) || isBroadcastMAC(mac) {
		return Entry{}, false
	}
	return Entry{IP: ip, MAC: mac}, true
}

// normalizeMAC converts dash separators and pads the single digit octets
// printed by BSD arp (aa:b:c:dd:e:f)
func normalizeMAC(macStr string) string {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(macStr), "-", ":"), ":")
	for i, part := range parts {
		if len(part) == 1 {
			parts[i] = "0" + part
		}
	}
	return strings.Join(parts, ":")
}

func isZeroMAC(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}

func isBroadcastMAC(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0xff {
			return false
		}
	}
	return true
}
