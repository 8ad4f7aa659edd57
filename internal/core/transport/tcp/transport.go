package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport TCP 传输层
//
// 记录其创建的监听器和连接，Close 时统一关闭。
type Transport struct {
	opts Options

	listeners   map[*Listener]struct{}
	listenersMu sync.Mutex

	conns   map[string]*Conn
	connsMu sync.Mutex

	closed atomic.Bool
}

// NewTransport 创建 TCP 传输层
func NewTransport(opts Options) *Transport {
	return &Transport{
		opts:      opts,
		listeners: make(map[*Listener]struct{}),
		conns:     make(map[string]*Conn),
	}
}

// Options 返回传输选项
func (t *Transport) Options() Options {
	return t.opts
}

// Dial 建立出站连接并应用套接字选项
func (t *Transport) Dial(ctx context.Context, addr string) (*Conn, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	dialer := &net.Dialer{
		Timeout: t.opts.DialTimeout,
		// keepalive 由 tune 设置
		KeepAlive: -1,
	}

	c, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	tcpConn, ok := c.(*net.TCPConn)
	if !ok {
		_ = c.Close()
		return nil, ErrNotTCP
	}

	if err := tune(tcpConn, t.opts); err != nil {
		_ = tcpConn.Close()
		return nil, fmt.Errorf("tune %s: %w", addr, err)
	}

	conn := newConn(tcpConn, t.untrack)
	t.track(conn)
	return conn, nil
}

// Listen 监听入站连接
func (t *Transport) Listen(addr string) (*Listener, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	l, err := newListener(addr, t.opts)
	if err != nil {
		return nil, err
	}
	l.onAccept = t.track
	l.onClose = t.untrack

	t.listenersMu.Lock()
	t.listeners[l] = struct{}{}
	t.listenersMu.Unlock()

	return l, nil
}

// Close 关闭传输层及其所有监听器和连接
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error

	t.listenersMu.Lock()
	listeners := t.listeners
	t.listeners = make(map[*Listener]struct{})
	t.listenersMu.Unlock()
	for l := range listeners {
		err = multierr.Append(err, l.Close())
	}

	t.connsMu.Lock()
	conns := make([]*Conn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.connsMu.Unlock()
	for _, c := range conns {
		err = multierr.Append(err, c.Close())
	}

	return err
}

// ConnCount 返回活跃连接数量
func (t *Transport) ConnCount() int {
	t.connsMu.Lock()
	defer t.connsMu.Unlock()
	return len(t.conns)
}

// IsClosed 检查是否已关闭
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

func (t *Transport) track(c *Conn) {
	t.connsMu.Lock()
	t.conns[c.ID()] = c
	t.connsMu.Unlock()

	// 与 Close 竞争时由这里收尾
	if t.closed.Load() {
		_ = c.Close()
	}
}

func (t *Transport) untrack(c *Conn) {
	t.connsMu.Lock()
	delete(t.conns, c.ID())
	t.connsMu.Unlock()
}
