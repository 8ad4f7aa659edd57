package bench

import (
	"context"
	"io"
	"sync"

	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
)

// echoBufSize 单次读取缓冲区
const echoBufSize = 4096

// EchoHandler 返回 echo 连接处理器，把收到的每段数据写入 w
//
// 多个连接共享 w，写入按段串行化。
func EchoHandler(w io.Writer) Handler {
	var mu sync.Mutex
	return func(_ context.Context, conn *tcp.Conn) error {
		buf := make([]byte, echoBufSize)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				mu.Lock()
				_, werr := w.Write(buf[:n])
				mu.Unlock()
				if werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
		}
	}
}

// NewEcho 创建 echo 服务
func NewEcho(addr string, w io.Writer) *Server {
	return NewServer(addr, EchoHandler(w))
}
