package pingsweep

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestEchoRejectsIPv6(t *testing.T) {
	_, err := Echo(context.Background(), net.ParseIP("::1"), time.Second)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Echo(::1) error = %v, want ErrUnsupported", err)
	}
}

func TestEchoWithUnknownNetwork(t *testing.T) {
	_, err := EchoWith(context.Background(), "tcp4", net.ParseIP("127.0.0.1"), time.Second)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("EchoWith(tcp4) error = %v, want ErrUnsupported", err)
	}
}

func TestEchoLoopback(t *testing.T) {
	reply, err := Echo(context.Background(), net.ParseIP("127.0.0.1"), 2*time.Second)
	if err != nil {
		// raw and datagram ICMP sockets are both commonly restricted
		t.Skipf("loopback echo unavailable: %v", err)
	}
	if reply.TTL <= 0 || reply.TTL > 255 {
		t.Errorf("reply TTL = %d, want 1..255", reply.TTL)
	}
	if !reply.IP.Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("reply IP = %s", reply.IP)
	}
}

func TestNextEchoUnique(t *testing.T) {
	seen := make(map[[2]int]struct{})
	for i := 0; i < 1000; i++ {
		id, seq := nextEcho()
		key := [2]int{id, seq}
		if _, ok := seen[key]; ok {
			t.Fatalf("duplicate echo id/seq %v", key)
		}
		seen[key] = struct{}{}
	}
}

func TestSourceIP(t *testing.T) {
	tests := []struct {
		name string
		addr net.Addr
		want string
	}{
		{name: "raw", addr: &net.IPAddr{IP: net.ParseIP("10.0.0.1")}, want: "10.0.0.1"},
		{name: "datagram", addr: &net.UDPAddr{IP: net.ParseIP("10.0.0.2")}, want: "10.0.0.2"},
		{name: "other", addr: &net.TCPAddr{IP: net.ParseIP("10.0.0.3")}, want: "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceIP(tt.addr).String(); got != tt.want {
				t.Errorf("sourceIP() = %s, want %s", got, tt.want)
			}
		})
	}
}
