package server

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dep2p/go-keepalive/internal/core/frame"
	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/slots"
	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
	"github.com/dep2p/go-keepalive/internal/util/addrutil"
	"github.com/dep2p/go-keepalive/internal/util/logger"
)

// 包级别日志实例
var log = logger.Logger("server")

// DefaultNotifyTimeout 默认通知写超时
const DefaultNotifyTimeout = 5 * time.Second

// 接受连接失败后的退避区间
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// ============================================================================
//                              配置与选项
// ============================================================================

// Config 服务端配置
type Config struct {
	// ListenAddr 监听地址 host:port
	ListenAddr string

	// SlotCapacity 槽位容量
	SlotCapacity uint32

	// NotifyTimeout 地址通知写超时，0 表示不限
	NotifyTimeout time.Duration
}

// Option 服务选项
type Option func(*Server)

// WithClock 设置时钟（用于帧 nonce）
func WithClock(clk clock.Clock) Option {
	return func(s *Server) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithMetrics 设置 prometheus 指标
func WithMetrics(m *metrics.ServerMetrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTransportOptions 设置套接字选项
func WithTransportOptions(opts tcp.Options) Option {
	return func(s *Server) {
		s.transport = tcp.NewTransport(opts)
	}
}

// ============================================================================
//                              Server
// ============================================================================

// Server 心跳服务端
//
// 每个连接由一个 goroutine 处理；槽位表在所有连接间共享，
// 认领（含通知与驱逐）在表锁内原子完成。
type Server struct {
	cfg       Config
	block     cipher.Block
	transport *tcp.Transport
	table     *slots.Table
	metrics   *metrics.ServerMetrics
	clock     clock.Clock

	listener *tcp.Listener
	wg       sync.WaitGroup
	done     chan struct{}

	running atomic.Bool
	closed  atomic.Bool
}

// NewServer 创建服务端
func NewServer(cfg Config, block cipher.Block, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		block:     block,
		transport: tcp.NewTransport(tcp.ServerOptions()),
		table:     slots.NewTable(cfg.SlotCapacity),
		clock:     clock.New(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewServerMetrics(prometheus.NewRegistry())
	}
	return s
}

// Table 返回槽位表
func (s *Server) Table() *slots.Table {
	return s.table
}

// Addr 返回实际监听地址，未启动时为 nil
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 开始监听并接受连接
func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	l, err := s.transport.Listen(s.cfg.ListenAddr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.listener = l

	log.Info("心跳服务已启动",
		"addr", l.Addr().String(),
		"slots", s.table.Capacity())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop 停止服务，关闭监听器和所有连接
func (s *Server) Stop() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	log.Info("心跳服务停止中")
	close(s.done)

	err := multierr.Combine(
		s.table.Close(),
		s.transport.Close(),
	)
	s.wg.Wait()

	s.running.Store(false)
	log.Info("心跳服务已停止")
	return err
}

// acceptLoop 接受连接
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			// 单个连接调优失败不影响监听；EMFILE 等持续错误时退避
			delay = nextAcceptDelay(delay)
			log.Warn("接受连接失败", "err", err, "retry_in", delay)
			s.metrics.RecordError("accept")
			select {
			case <-s.clock.After(delay):
			case <-s.done:
				return
			}
			continue
		}
		delay = 0

		s.wg.Add(1)
		go s.handle(conn)
	}
}

// nextAcceptDelay 返回下一次接受重试前的等待时间，从 minAcceptDelay 起倍增至 maxAcceptDelay
func nextAcceptDelay(d time.Duration) time.Duration {
	if d <= 0 {
		return minAcceptDelay
	}
	return min(2*d, maxAcceptDelay)
}

// ============================================================================
//                              连接处理
// ============================================================================

// handle 处理单个连接直到出错或被驱逐
func (s *Server) handle(conn *tcp.Conn) {
	defer s.wg.Done()
	defer func() { _ = conn.Close() }()

	s.metrics.RecordConnection()
	defer func() {
		s.metrics.RecordDisconnection(time.Since(conn.Opened()).Seconds())
	}()

	ip := conn.RemoteIP()
	l := log.With("conn", conn.ID(), "peer", conn.RemoteAddrPort().String())
	l.Debug("新连接")

	if !ip.Is4() {
		l.Warn("拒绝连接", "err", ErrNotIPv4)
		s.metrics.RecordError("not_ipv4")
		return
	}

	for {
		f, err := frame.ReadFrame(conn, s.block)
		if err != nil {
			s.closeWith(l, conn, err)
			return
		}
		if err := f.Expect(frame.ClientMagic); err != nil {
			s.closeWith(l, conn, err)
			return
		}
		s.metrics.FramesReceived.Inc()

		res, err := s.table.Claim(f.Slot(), conn, ip, func(ip netip.Addr) error {
			return s.notify(conn, ip)
		})
		if err != nil {
			s.closeWith(l, conn, err)
			return
		}

		s.metrics.Claims.Inc()
		if res.Notified {
			s.metrics.Notifications.Inc()
			l.Info("槽位地址变化，已通知",
				"slot", f.Slot(),
				"ip", ip.String(),
				"scope", addrutil.Classify(ip),
				"previous", addrString(res.PreviousIP))
		}
		if res.Evicted != nil {
			s.metrics.Evictions.Inc()
			l.Info("驱逐槽位旧连接", "slot", f.Slot(), "evicted", res.Evicted.ID())
		}
	}
}

// notify 在连接上发送地址通知
func (s *Server) notify(conn *tcp.Conn, ip netip.Addr) error {
	if s.cfg.NotifyTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.NotifyTimeout))
		defer func() { _ = conn.SetWriteDeadline(time.Time{}) }()
	}

	if err := frame.WriteFrame(conn, s.block, frame.NewServerFrame(s.clock.Now(), ip)); err != nil {
		return err
	}
	s.metrics.FramesSent.Inc()
	return nil
}

// closeWith 记录导致连接关闭的错误
func (s *Server) closeWith(l *slog.Logger, conn *tcp.Conn, err error) {
	// 被驱逐（含 ErrOccupantClosed）或服务停止时连接已由我们关闭
	if !errors.Is(err, slots.ErrNotifyFailed) && (conn.IsClosed() || s.closed.Load()) {
		l.Debug("连接已关闭", "err", err)
		return
	}

	kind := errorKind(err)
	s.metrics.RecordError(kind)
	if kind == "closed" {
		l.Debug("对端关闭连接")
		return
	}
	l.Warn("关闭连接", "reason", kind, "err", err)
}

// errorKind 将错误归类为指标标签
func errorKind(err error) string {
	switch {
	case errors.Is(err, slots.ErrSlotOutOfRange):
		return "slot_out_of_range"
	case errors.Is(err, slots.ErrNotifyFailed):
		return "notify_failed"
	case errors.Is(err, slots.ErrOccupantClosed):
		return "evicted"
	case errors.Is(err, frame.ErrBadTag):
		return "bad_tag"
	case errors.Is(err, io.EOF):
		return "closed"
	case errors.Is(err, frame.ErrBadLength):
		return "bad_length"
	default:
		return "transport"
	}
}

func addrString(ip netip.Addr) string {
	if !ip.IsValid() {
		return ""
	}
	return ip.String()
}

// String 返回服务描述
func (s *Server) String() string {
	return fmt.Sprintf("keepalive-server(%s, slots=%d)", s.cfg.ListenAddr, s.table.Capacity())
}
