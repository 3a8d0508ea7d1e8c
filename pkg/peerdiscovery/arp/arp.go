package arp

import (
	"context"
	"errors"
	"net"
	"sort"
	"time"

	"github.com/projectdiscovery/netrecon/pkg/peerdiscovery/common"
)

// ErrUnsupported is returned on platforms without a readable neighbor table
var ErrUnsupported = errors.New("neighbor table not available on this platform")

// DefaultCommandTimeout bounds the external arp command
const DefaultCommandTimeout = 3 * time.Second

// Entry is an IPv4 to hardware address association
type Entry struct {
	IP  net.IP
	MAC net.HardwareAddr
}

// Table is a snapshot of the neighbor table keyed by IPv4 address
type Table struct {
	entries map[string]Entry
}

// NewTable builds a table from entries, later duplicates win
func NewTable(entries []Entry) Table {
	t := Table{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		ip := entry.IP.To4()
		if ip == nil {
			continue
		}
		t.entries[ip.String()] = Entry{IP: ip, MAC: entry.MAC}
	}
	return t
}

// Len returns the number of entries
func (t Table) Len() int {
	return len(t.entries)
}

// Lookup returns the hardware address recorded for ip, or nil
func (t Table) Lookup(ip net.IP) net.HardwareAddr {
	if t.entries == nil || ip == nil {
		return nil
	}
	if entry, ok := t.entries[ip.String()]; ok {
		return entry.MAC
	}
	return nil
}

// Within returns the entries inside r in ascending address order
func (t Table) Within(r common.Range) []Entry {
	var inside []Entry
	for _, entry := range t.entries {
		if r.Contains(entry.IP) {
			inside = append(inside, entry)
		}
	}
	sort.Slice(inside, func(i, j int) bool {
		return common.CompareIP(inside[i].IP, inside[j].IP) < 0
	})
	return inside
}

// Reader reads the neighbor table of the local host
type Reader struct {
	// Timeout bounds external commands used to read the table
	Timeout time.Duration
}

// NewReader returns a reader with the default command timeout
func NewReader() *Reader {
	return &Reader{Timeout: DefaultCommandTimeout}
}

// Read returns a fresh snapshot of the neighbor table
func (r *Reader) Read(ctx context.Context) (Table, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries, err := readLocalARPTable(ctx)
	if err != nil {
		return Table{}, err
	}
	return NewTable(entries), nil
}
