package types

import (
	"net"
)

// Host represents a discovered live address on the target range
type Host struct {
	IP              net.IP           `json:"ip"`
	HardwareAddress net.HardwareAddr `json:"-"`
	Label           string           `json:"hostname,omitempty"`
	// Source records how the host was first seen: "neighbor" or "tcp-probe"
	Source string `json:"source,omitempty"`
}

// MAC returns the hardware address in canonical form or an empty string
func (h Host) MAC() string {
	if len(h.HardwareAddress) == 0 {
		return ""
	}
	return h.HardwareAddress.String()
}

// OSGuess is the coarse operating system estimate derived from an echo reply TTL
type OSGuess struct {
	TTL   *int   `json:"ttl"`
	Label string `json:"os_guess,omitempty"`
}

// HasTTL reports whether an echo reply was observed
func (g OSGuess) HasTTL() bool {
	return g.TTL != nil
}
