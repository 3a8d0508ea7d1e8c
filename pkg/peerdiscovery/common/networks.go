package common

import (
	"errors"
	"fmt"
	"net"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// routeProbeAddress is only used to let the kernel pick the outgoing
// interface; a UDP "connect" sends no packet.
const routeProbeAddress = "8.8.8.8:80"

// PrimaryIP returns the IPv4 address of the interface holding the default route
func PrimaryIP() (net.IP, error) {
	conn, err := net.DialTimeout("udp4", routeProbeAddress, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to determine primary address: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return nil, errors.New("primary address is not IPv4")
	}
	return addr.IP.To4(), nil
}

// PrimaryNetwork returns the block the primary address belongs to, using the
// interface netmask when it can be found and a /24 otherwise.
func PrimaryNetwork() (net.IP, Range, error) {
	ip, err := PrimaryIP()
	if err != nil {
		return nil, Range{}, err
	}

	if network := interfaceNetwork(ip); network != nil {
		ones, _ := network.Mask.Size()
		// point-to-point and oversized interface blocks are narrowed to the /24
		if ones >= MinPrefixLength && ones <= 30 {
			if r, err := ParseRange(network.String()); err == nil {
				return ip, r, nil
			}
		}
	}

	r, err := ParseRange(fmt.Sprintf("%s/24", ip))
	if err != nil {
		return nil, Range{}, err
	}
	return ip, r, nil
}

// interfaceNetwork looks up the configured block of ip among local interfaces
func interfaceNetwork(ip net.IP) *net.IPNet {
	interfaces, err := psnet.Interfaces()
	if err != nil {
		return nil
	}

	for _, iface := range interfaces {
		for _, addr := range iface.Addrs {
			ifaceIP, network, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				continue
			}
			if ifaceIP.Equal(ip) {
				return network
			}
		}
	}
	return nil
}
