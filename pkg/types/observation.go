package types

import (
	"net"
	"sort"
)

// PortState is the classification of a single connection attempt
type PortState string

const (
	StateOpen     PortState = "open"
	StateClosed   PortState = "closed"
	StateFiltered PortState = "filtered"
	StateError    PortState = "error"
)

// Finding is a banner match against a vulnerability signature
type Finding struct {
	Product string `json:"product"`
	Version string `json:"version"`
	Notes   string `json:"notes,omitempty"`
}

// PortObservation is the outcome of scanning one port on one host
type PortObservation struct {
	IP          net.IP    `json:"ip"`
	Port        int       `json:"port"`
	State       PortState `json:"state"`
	Banner      string    `json:"banner,omitempty"`
	RTT         *float64  `json:"rtt_ms,omitempty"`
	ErrorDetail string    `json:"error,omitempty"`
	Findings    []Finding `json:"vulns,omitempty"`
}

// IsOpen reports whether the port accepted the connection
func (o PortObservation) IsOpen() bool {
	return o.State == StateOpen
}

// SortObservations orders observations by ascending port
func SortObservations(observations []PortObservation) {
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Port < observations[j].Port
	})
}

// HostReport aggregates everything learned about a single host
type HostReport struct {
	Host         Host              `json:"host"`
	OS           OSGuess           `json:"os"`
	Observations []PortObservation `json:"services"`
}

// OpenPorts returns the observations in the open state
func (r HostReport) OpenPorts() []PortObservation {
	var open []PortObservation
	for _, observation := range r.Observations {
		if observation.IsOpen() {
			open = append(open, observation)
		}
	}
	return open
}
