package server

import "errors"

var (
	// ErrServerClosed 服务已关闭
	ErrServerClosed = errors.New("server closed")

	// ErrNotIPv4 对端地址不是 IPv4，无法放入通知帧
	ErrNotIPv4 = errors.New("server: peer address is not IPv4")
)
