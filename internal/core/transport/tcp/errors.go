package tcp

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")

	// ErrNotTCP 底层连接或地址不是 TCP
	ErrNotTCP = errors.New("not a TCP connection")

	// ErrInvalidAddress 地址格式无效
	ErrInvalidAddress = errors.New("invalid TCP address")
)
