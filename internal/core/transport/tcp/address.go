package tcp

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// ============================================================================
//                              Address 实现
// ============================================================================

// Address TCP 地址（主机名或 IP + 端口）
type Address struct {
	host string
	port int
}

// NewAddress 创建 TCP 地址
func NewAddress(host string, port int) *Address {
	return &Address{
		host: host,
		port: port,
	}
}

// ParseAddress 解析 "host:port" 形式的地址
func ParseAddress(addr string) (*Address, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAddress, addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return nil, fmt.Errorf("%w: %s: bad port", ErrInvalidAddress, addr)
	}
	return &Address{host: host, port: port}, nil
}

// Host 返回主机地址
func (a *Address) Host() string {
	return a.host
}

// Port 返回端口号
func (a *Address) Port() int {
	return a.port
}

// String 返回 net.Dial 使用的地址字符串
func (a *Address) String() string {
	return net.JoinHostPort(a.host, strconv.Itoa(a.port))
}

// addrPortOf 将 net.Addr 转为 netip.AddrPort
//
// IPv4-mapped IPv6 地址会被还原为 IPv4。
func addrPortOf(addr net.Addr) netip.AddrPort {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return netip.AddrPort{}
	}
	ap := tcpAddr.AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}
