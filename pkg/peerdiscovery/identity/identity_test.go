package identity

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/miekg/dns"
)

func TestParseNetBIOSOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name: "nmblookup",
			output: `Looking up status of 192.168.1.20
	FILESRV         <00> -         B <ACTIVE>
	WORKGROUP       <00> - <GROUP> B <ACTIVE>
	FILESRV         <20> -         B <ACTIVE>

	MAC Address = 00-00-00-00-00-00
`,
			want: "FILESRV",
		},
		{
			name: "nbtstat",
			output: `
Local Area Connection:
Node IpAddress: [192.168.1.100] Scope Id: []

           NetBIOS Remote Machine Name Table

       Name               Type         Status
    ---------------------------------------------
    DESKTOP-42     <20>  UNIQUE      Registered
    DESKTOP-42     <00>  UNIQUE      Registered
`,
			want: "DESKTOP-42",
		},
		{name: "no reply", output: "No reply from 192.168.1.20. There was no match\n", want: ""},
		{name: "empty", output: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseNetBIOSOutput(tt.output); got != tt.want {
				t.Errorf("parseNetBIOSOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabelChain(t *testing.T) {
	empty := func(context.Context, net.IP) string { return "" }
	named := func(context.Context, net.IP) string { return "FILESRV" }

	tests := []struct {
		name    string
		lookups []Lookup
		want    string
	}{
		{
			name:    "reverse dns wins",
			lookups: []Lookup{func(context.Context, net.IP) string { return "router.lan." }, named},
			want:    "router.lan",
		},
		{name: "falls back to netbios", lookups: []Lookup{empty, named}, want: "FILESRV"},
		{name: "nothing known", lookups: []Lookup{empty, empty}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{Lookups: tt.lookups})
			if got := r.Label(context.Background(), net.ParseIP("192.168.1.1")); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabelCached(t *testing.T) {
	var calls atomic.Int32
	r := New(Options{Lookups: []Lookup{func(context.Context, net.IP) string {
		calls.Add(1)
		return ""
	}}})

	ip := net.ParseIP("192.168.1.9")
	for i := 0; i < 3; i++ {
		_ = r.Label(context.Background(), ip)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("lookup called %d times, want 1", got)
	}
}

func TestFirstPTR(t *testing.T) {
	reply := new(dns.Msg)
	rr, err := dns.NewRR("1.1.168.192.in-addr.arpa. 300 IN PTR router.lan.")
	if err != nil {
		t.Fatalf("NewRR: %v", err)
	}
	reply.Answer = append(reply.Answer, rr)

	if got := firstPTR(reply); got != "router.lan." {
		t.Errorf("firstPTR() = %q", got)
	}
	if got := firstPTR(new(dns.Msg)); got != "" {
		t.Errorf("firstPTR(empty) = %q", got)
	}
}
