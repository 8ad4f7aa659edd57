package bench

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
	"github.com/dep2p/go-keepalive/internal/util/logger"
)

// 包级别日志实例
var log = logger.Logger("bench")

// 接受连接失败后的退避上限
const maxAcceptDelay = time.Second

// Handler 处理单个入站连接，返回后连接被关闭
type Handler func(ctx context.Context, conn *tcp.Conn) error

// Server 基准工具的被动端（pong / echo）
type Server struct {
	addr    string
	handler Handler

	transport *tcp.Transport
	listener  *tcp.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewServer 创建被动端
func NewServer(addr string, handler Handler) *Server {
	return &Server{
		addr:      addr,
		handler:   handler,
		transport: tcp.NewTransport(tcp.PlainOptions()),
	}
}

// Start 开始监听
func (s *Server) Start(ctx context.Context) error {
	l, err := s.transport.Listen(s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	log.Info("基准服务已启动", "addr", l.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr 返回监听地址
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop 关闭监听器和所有连接
func (s *Server) Stop() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	err := s.transport.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			delay = acceptBackoff(delay)
			log.Warn("接受连接失败", "err", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-s.ctx.Done():
				return
			}
			continue
		}
		delay = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { _ = conn.Close() }()

			err := s.handler(s.ctx, conn)
			if err != nil && !isClosed(err) && !conn.IsClosed() {
				log.Warn("连接处理失败", "conn", conn.ID(), "err", err)
			}
		}()
	}
}

// acceptBackoff 从 5ms 起倍增，不超过 maxAcceptDelay
func acceptBackoff(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Millisecond
	}
	return min(2*d, maxAcceptDelay)
}

// isClosed 判断是否为正常关闭
func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
