package client

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-keepalive/internal/core/action"
	"github.com/dep2p/go-keepalive/internal/core/frame"
	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
	"github.com/dep2p/go-keepalive/internal/util/addrutil"
	"github.com/dep2p/go-keepalive/internal/util/logger"
)

// 包级别日志实例
var log = logger.Logger("client")

// DefaultReconnectDelay 默认重连间隔
const DefaultReconnectDelay = time.Second

// ============================================================================
//                              拨号
// ============================================================================

// Dialer 建立到服务端的连接
type Dialer interface {
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

// DialerFunc 函数适配器
type DialerFunc func(ctx context.Context, addr string) (net.Conn, error)

// Dial 实现 Dialer
func (f DialerFunc) Dial(ctx context.Context, addr string) (net.Conn, error) {
	return f(ctx, addr)
}

// TCPDialer 使用 tcp.Transport 拨号（带套接字调优）
func TCPDialer(t *tcp.Transport) Dialer {
	return DialerFunc(func(ctx context.Context, addr string) (net.Conn, error) {
		c, err := t.Dial(ctx, addr)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// ============================================================================
//                              配置与选项
// ============================================================================

// Config 会话配置
type Config struct {
	// Addr 服务端 host:port
	Addr string

	// Slot 认领的槽位号
	Slot uint32

	// ReconnectDelay 断开后的重连间隔
	ReconnectDelay time.Duration
}

// Option 会话选项
type Option func(*Session)

// WithClock 设置时钟
func WithClock(clk clock.Clock) Option {
	return func(s *Session) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithObserver 添加状态观察者
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// WithMetrics 设置 prometheus 指标
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// ============================================================================
//                              Session
// ============================================================================

// Session 客户端会话
//
// 单个 goroutine 驱动：连接 → 认证 → 等待服务端帧 → 执行外部动作，
// 任何错误都关闭连接并在固定间隔后重连。外部动作执行期间会话阻塞。
type Session struct {
	cfg     Config
	block   cipher.Block
	dialer  Dialer
	invoker action.Invoker
	clock   clock.Clock
	metrics *metrics.ClientMetrics

	mu        sync.Mutex
	state     State
	observers []Observer

	running atomic.Bool
}

// NewSession 创建会话
func NewSession(cfg Config, block cipher.Block, dialer Dialer, invoker action.Invoker, opts ...Option) *Session {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	s := &Session{
		cfg:     cfg,
		block:   block,
		dialer:  dialer,
		invoker: invoker,
		clock:   clock.New(),
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State 返回当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddObserver 添加状态观察者
func (s *Session) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Run 运行会话直到 ctx 取消或发生致命错误
//
// ctx 取消时返回 nil；外部动作无法启动时返回 action.ErrSpawn。
// 取消时连接被直接关闭，不等待在途数据。
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)
	defer func() { _ = s.transition(EventStop) }()

	log.Info("客户端会话启动", "server", s.cfg.Addr, "slot", s.cfg.Slot)

	for {
		err := s.connect(ctx)
		if ctx.Err() != nil {
			log.Info("客户端会话停止")
			return nil
		}
		if action.IsFatal(err) {
			log.Error("外部动作无法启动，会话终止", "err", err)
			return err
		}

		reason := disconnectReason(err)
		if s.metrics != nil {
			s.metrics.RecordDisconnect(reason)
		}

		// 先设定重连计时再对外报告断开
		timer := s.clock.Timer(s.cfg.ReconnectDelay)
		_ = s.transition(EventFailure)
		log.Info("连接断开，等待重连",
			"reason", reason,
			"delay", s.cfg.ReconnectDelay,
			"err", err)

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("客户端会话停止")
			return nil
		case <-timer.C:
		}
	}
}

// connect 执行一次连接周期，返回导致断开的错误
func (s *Session) connect(ctx context.Context) error {
	_ = s.transition(EventDial)

	conn, err := s.dialer.Dial(ctx, s.cfg.Addr)
	if err != nil {
		if s.metrics != nil {
			s.metrics.DialFailures.Inc()
		}
		return fmt.Errorf("%w: %w", ErrDial, err)
	}
	if s.metrics != nil {
		s.metrics.Connects.Inc()
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer func() { _ = conn.Close() }()

	log.Info("已连接服务端", "addr", s.cfg.Addr)

	auth := frame.NewClientFrame(s.clock.Now(), s.cfg.Slot)
	if err := frame.WriteFrame(conn, s.block, auth); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}
	_ = s.transition(EventAuthSent)

	for {
		f, err := frame.ReadFrame(conn, s.block)
		if err != nil {
			return err
		}
		if err := f.Expect(frame.ServerTag); err != nil {
			return err
		}
		_ = s.transition(EventNotified)

		ip := f.IP()
		log.Info("收到服务端地址通知", "ip", ip.String(), "scope", addrutil.Classify(ip))
		if s.metrics != nil {
			s.metrics.Notifications.Inc()
		}

		if err := s.invoker.Invoke(ctx, ip); err != nil {
			return fmt.Errorf("action: %w", err)
		}
		if s.metrics != nil {
			s.metrics.ActionSuccesses.Inc()
		}
	}
}

// transition 应用事件并通知观察者
func (s *Session) transition(e Event) error {
	s.mu.Lock()
	from := s.state
	to, ok := next(from, e)
	if !ok {
		s.mu.Unlock()
		log.Error("非法状态转换", "state", from.String(), "event", e.String())
		return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e, from)
	}
	s.state = to
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	if from == to {
		return nil
	}

	log.Debug("状态转换", "from", from.String(), "to", to.String(), "event", e.String())
	if s.metrics != nil {
		s.metrics.SetState(to.String())
	}
	for _, o := range observers {
		o.OnStateChange(from, to)
	}
	return nil
}

// disconnectReason 将断开原因归类为指标标签
func disconnectReason(err error) string {
	switch {
	case errors.Is(err, ErrDial):
		return "dial"
	case errors.Is(err, frame.ErrBadTag):
		return "bad_tag"
	case errors.Is(err, io.EOF):
		return "closed"
	case errors.Is(err, frame.ErrBadLength):
		return "bad_length"
	case errors.Is(err, frame.ErrShortWrite):
		return "short_write"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
