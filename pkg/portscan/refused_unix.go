//go:build !windows

package portscan

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isConnectionRefused(err error) bool {
	return errors.Is(err, unix.ECONNREFUSED)
}
