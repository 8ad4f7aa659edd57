package tcp

import (
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// 确保实现了接口
var _ net.Conn = (*Conn)(nil)

// Conn 心跳 TCP 连接
//
// 每个连接有唯一 ID，用于日志和槽位占用者比较。Close 幂等，可以在
// 读写阻塞期间从其它 goroutine 调用以打断它们。
type Conn struct {
	conn   *net.TCPConn
	id     string
	remote netip.AddrPort
	opened time.Time

	closed  atomic.Bool
	onClose func(*Conn)
}

// newConn 包装 TCP 连接
func newConn(c *net.TCPConn, onClose func(*Conn)) *Conn {
	return &Conn{
		conn:    c,
		id:      uuid.NewString(),
		remote:  addrPortOf(c.RemoteAddr()),
		opened:  time.Now(),
		onClose: onClose,
	}
}

// ID 返回连接 ID
func (c *Conn) ID() string {
	return c.id
}

// RemoteIP 返回对端 IP（IPv4-mapped 地址已还原）
func (c *Conn) RemoteIP() netip.Addr {
	return c.remote.Addr()
}

// RemoteAddrPort 返回对端地址和端口
func (c *Conn) RemoteAddrPort() netip.AddrPort {
	return c.remote
}

// Opened 返回建立时间
func (c *Conn) Opened() time.Time {
	return c.opened
}

// Read 读取数据
func (c *Conn) Read(b []byte) (int, error) {
	return c.conn.Read(b)
}

// Write 写入数据
func (c *Conn) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

// Close 关闭连接
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.onClose != nil {
		c.onClose(c)
	}
	return c.conn.Close()
}

// IsClosed 检查是否已关闭
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// LocalAddr 返回本地地址
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr 返回远端地址
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline 设置读写截止时间
func (c *Conn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline 设置读截止时间
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline 设置写截止时间
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// RawConn 返回底层 TCP 连接
func (c *Conn) RawConn() *net.TCPConn {
	return c.conn
}
