//go:build !windows

package pingsweep

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// echo sends a single ICMP echo request and reads replies until the matching
// one arrives or the deadline passes
func echo(ctx context.Context, network string, ip net.IP, deadline time.Time) (Reply, error) {
	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %s socket: %v", ErrUnsupported, network, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// unblock the read when the caller gives up
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	pc := conn.IPv4PacketConn()
	if err := pc.SetControlMessage(ipv4.FlagTTL, true); err != nil {
		return Reply{}, fmt.Errorf("%w: ttl control message: %v", ErrUnsupported, err)
	}

	id, seq := nextEcho()
	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: payload},
	}
	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to marshal ICMP message: %w", err)
	}

	var dst net.Addr = &net.IPAddr{IP: ip}
	if network == NetworkDatagram {
		dst = &net.UDPAddr{IP: ip}
	}

	start := time.Now()
	if _, err := pc.WriteTo(msgBytes, nil, dst); err != nil {
		return Reply{}, fmt.Errorf("failed to send echo to %s: %w", ip, err)
	}
	if err := pc.SetReadDeadline(deadline); err != nil {
		return Reply{}, fmt.Errorf("failed to set read deadline: %w", err)
	}

	buf := make([]byte, 1500)
	for {
		n, cm, peer, err := pc.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				return Reply{}, ErrNoReply
			}
			return Reply{}, fmt.Errorf("failed to read echo reply: %w", err)
		}

		rm, err := icmp.ParseMessage(ipv4.ICMPTypeEchoReply.Protocol(), buf[:n])
		if err != nil || rm.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		reply, ok := rm.Body.(*icmp.Echo)
		if !ok || reply.Seq != seq {
			continue
		}
		// the kernel rewrites the identifier of datagram sockets
		if network == NetworkRaw && reply.ID != id {
			continue
		}
		if !sourceIP(peer).Equal(ip) {
			continue
		}
		if cm == nil {
			return Reply{}, fmt.Errorf("%w: reply carried no ttl", ErrUnsupported)
		}
		return Reply{IP: ip, TTL: cm.TTL, RTT: time.Since(start)}, nil
	}
}
