//go:build windows

package pingsweep

import (
	"context"
	"fmt"
	"net"
	"time"
)

func echo(_ context.Context, network string, _ net.IP, _ time.Time) (Reply, error) {
	return Reply{}, fmt.Errorf("%w: %s sockets cannot report ttl on windows", ErrUnsupported, network)
}
