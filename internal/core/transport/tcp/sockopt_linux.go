//go:build linux

package tcp

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// tune 在已建立的连接上应用套接字选项
func tune(c *net.TCPConn, opts Options) error {
	if opts.NoDelay {
		if err := c.SetNoDelay(true); err != nil {
			return fmt.Errorf("set nodelay: %w", err)
		}
	}

	rawConn, err := c.SyscallConn()
	if err != nil {
		return fmt.Errorf("syscall conn: %w", err)
	}

	var sockErr error
	err = rawConn.Control(func(fd uintptr) {
		sockErr = setsockopts(int(fd), opts)
	})
	if err != nil {
		return fmt.Errorf("control: %w", err)
	}
	return sockErr
}

func setsockopts(fd int, opts Options) error {
	if opts.RecvBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, opts.RecvBuffer); err != nil {
			return fmt.Errorf("SO_RCVBUF: %w", err)
		}
	}
	if opts.SendBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, opts.SendBuffer); err != nil {
			return fmt.Errorf("SO_SNDBUF: %w", err)
		}
	}
	if opts.RecvLowWater > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVLOWAT, opts.RecvLowWater); err != nil {
			return fmt.Errorf("SO_RCVLOWAT: %w", err)
		}
	}

	ka := opts.KeepAlive
	if !ka.Enabled {
		return nil
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return fmt.Errorf("SO_KEEPALIVE: %w", err)
	}
	if ka.Idle > 0 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, int(ka.Idle.Seconds())); err != nil {
			return fmt.Errorf("TCP_KEEPIDLE: %w", err)
		}
	}
	if ka.Interval > 0 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(ka.Interval.Seconds())); err != nil {
			return fmt.Errorf("TCP_KEEPINTVL: %w", err)
		}
	}
	if ka.Count > 0 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, ka.Count); err != nil {
			return fmt.Errorf("TCP_KEEPCNT: %w", err)
		}
	}
	return nil
}
