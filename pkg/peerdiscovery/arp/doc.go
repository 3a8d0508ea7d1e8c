// Package arp reads the local IPv4 neighbor (address resolution) table.
//
// The table is passive evidence of live hosts: an entry with a complete
// hardware address means the host answered an ARP request recently. The
// reader is capability checked rather than platform branched:
//   - Linux reads /proc/net/arp
//   - macOS and the BSDs parse `arp -an`
//   - Windows parses `arp -a`
//
// When no source is available (unsupported platform, missing command,
// permission denied) Read returns ErrUnsupported or the underlying error and
// callers degrade to probe-only discovery.
package arp
