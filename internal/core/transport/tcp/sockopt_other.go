//go:build !linux

package tcp

import (
	"fmt"
	"net"
)

// tune 在已建立的连接上应用套接字选项
//
// 非 Linux 平台没有可移植的接收低水位，只设置缓冲区和 keepalive。
func tune(c *net.TCPConn, opts Options) error {
	if opts.NoDelay {
		if err := c.SetNoDelay(true); err != nil {
			return fmt.Errorf("set nodelay: %w", err)
		}
	}
	if opts.RecvBuffer > 0 {
		if err := c.SetReadBuffer(opts.RecvBuffer); err != nil {
			return fmt.Errorf("set read buffer: %w", err)
		}
	}
	if opts.SendBuffer > 0 {
		if err := c.SetWriteBuffer(opts.SendBuffer); err != nil {
			return fmt.Errorf("set write buffer: %w", err)
		}
	}
	if opts.KeepAlive.Enabled {
		if err := c.SetKeepAlive(true); err != nil {
			return fmt.Errorf("set keepalive: %w", err)
		}
		if opts.KeepAlive.Idle > 0 {
			if err := c.SetKeepAlivePeriod(opts.KeepAlive.Idle); err != nil {
				return fmt.Errorf("set keepalive period: %w", err)
			}
		}
	}
	return nil
}
