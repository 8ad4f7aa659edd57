package tcp

import "time"

// ============================================================================
//                              选项
// ============================================================================

// 心跳连接的默认套接字参数
const (
	// DefaultRecvLowWater 接收低水位：一帧
	DefaultRecvLowWater = 16

	// DefaultBufferSize 收发缓冲区：约 1.5 帧
	DefaultBufferSize = 24

	// DefaultDialTimeout 拨号超时
	DefaultDialTimeout = 10 * time.Second
)

// KeepAlive TCP keepalive 探测参数
type KeepAlive struct {
	Enabled  bool
	Idle     time.Duration
	Interval time.Duration
	Count    int
}

// DefaultKeepAlive 返回客户端默认 keepalive 参数
func DefaultKeepAlive() KeepAlive {
	return KeepAlive{
		Enabled:  true,
		Idle:     60 * time.Second,
		Interval: 3 * time.Second,
		Count:    20,
	}
}

// Options 套接字调优选项
//
// 零值字段表示保持系统默认。
type Options struct {
	// RecvLowWater SO_RCVLOWAT
	RecvLowWater int

	// RecvBuffer SO_RCVBUF
	RecvBuffer int

	// SendBuffer SO_SNDBUF
	SendBuffer int

	// NoDelay 禁用 Nagle
	NoDelay bool

	// KeepAlive TCP keepalive
	KeepAlive KeepAlive

	// DialTimeout 拨号超时
	DialTimeout time.Duration
}

// DefaultOptions 返回心跳连接的默认选项（客户端）
func DefaultOptions() Options {
	return Options{
		RecvLowWater: DefaultRecvLowWater,
		RecvBuffer:   DefaultBufferSize,
		SendBuffer:   DefaultBufferSize,
		NoDelay:      true,
		KeepAlive:    DefaultKeepAlive(),
		DialTimeout:  DefaultDialTimeout,
	}
}

// ServerOptions 返回服务端默认选项
//
// 与客户端相同的低水位和缓冲区，不启用 keepalive 探测。
func ServerOptions() Options {
	opts := DefaultOptions()
	opts.KeepAlive = KeepAlive{}
	return opts
}

// PlainOptions 返回不做帧调优的选项（基准工具使用 4 字节消息）
func PlainOptions() Options {
	return Options{
		NoDelay:     true,
		DialTimeout: DefaultDialTimeout,
	}
}
