package bench

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
)

// 探测与回复消息
var (
	pingMsg = []byte("ping")
	pongMsg = []byte("pong")
)

// MsgSize 探测消息大小
const MsgSize = 4

// PongHandler 返回 pong 连接处理器
//
// 每收到一个完整的 "ping" 回复一个 "pong"；其它内容视为错误并关闭连接。
// bw 可为 nil。
func PongHandler(bw *metrics.BandwidthCounter) Handler {
	return func(_ context.Context, conn *tcp.Conn) error {
		buf := make([]byte, MsgSize)
		for {
			if _, err := io.ReadFull(conn, buf); err != nil {
				return err
			}
			if !bytes.Equal(buf, pingMsg) {
				return fmt.Errorf("%w: %q", ErrMismatch, buf)
			}
			if bw != nil {
				bw.LogRecvMessage(MsgSize)
			}

			if _, err := conn.Write(pongMsg); err != nil {
				return err
			}
			if bw != nil {
				bw.LogSentMessage(MsgSize)
			}
		}
	}
}

// NewPong 创建 pong 服务
func NewPong(addr string, bw *metrics.BandwidthCounter) *Server {
	return NewServer(addr, PongHandler(bw))
}
