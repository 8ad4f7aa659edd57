package tcp

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
)

// ============================================================================
//                              Listener 实现
// ============================================================================

// Listener TCP 监听器
type Listener struct {
	listener *net.TCPListener
	opts     Options
	closed   atomic.Bool

	onAccept func(*Conn)
	onClose  func(*Conn)
}

// newListener 创建 TCP 监听器
func newListener(addr string, opts Options) (*Listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	tcpListener, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return nil, ErrNotTCP
	}

	return &Listener{
		listener: tcpListener,
		opts:     opts,
	}, nil
}

// Accept 接受连接并应用套接字选项
//
// 单个连接调优失败只关闭该连接并返回错误，监听器保持可用。
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.listener.AcceptTCP()
	if err != nil {
		return nil, err
	}

	if err := tune(c, l.opts); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("tune accepted conn: %w", err)
	}

	conn := newConn(c, l.onClose)
	if l.onAccept != nil {
		l.onAccept(conn)
	}
	return conn, nil
}

// Addr 返回监听地址
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Port 返回实际监听端口（监听 :0 时有用）
func (l *Listener) Port() int {
	return int(addrPortOf(l.listener.Addr()).Port())
}

// Close 关闭监听器
func (l *Listener) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		return l.listener.Close()
	}
	return nil
}

// IsClosed 检查监听器是否已关闭
func (l *Listener) IsClosed() bool {
	return l.closed.Load()
}
