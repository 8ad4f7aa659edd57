package action

import (
	"context"
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultRetryDelay 默认重试间隔
const DefaultRetryDelay = time.Second

// RetryHook 重试计时开始后调用，attempt 从 1 开始
type RetryHook func(attempt int, err error)

// RetrierOption Retrier 选项
type RetrierOption func(*Retrier)

// WithClock 设置时钟（测试中使用 clock.NewMock）
func WithClock(clk clock.Clock) RetrierOption {
	return func(r *Retrier) {
		r.clock = clk
	}
}

// WithDelay 设置重试间隔
func WithDelay(d time.Duration) RetrierOption {
	return func(r *Retrier) {
		if d > 0 {
			r.delay = d
		}
	}
}

// WithRetryHook 设置重试回调
func WithRetryHook(hook RetryHook) RetrierOption {
	return func(r *Retrier) {
		r.hook = hook
	}
}

// Retrier 以固定间隔无限重试的调用器
//
// 调用期间阻塞调用方。只有成功、致命错误或 ctx 取消才会返回。
type Retrier struct {
	inv   Invoker
	clock clock.Clock
	delay time.Duration
	hook  RetryHook
}

// 确保实现接口
var _ Invoker = (*Retrier)(nil)

// NewRetrier 创建重试调用器
func NewRetrier(inv Invoker, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		inv:   inv,
		clock: clock.New(),
		delay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invoke 调用直到成功
func (r *Retrier) Invoke(ctx context.Context, ip netip.Addr) error {
	for attempt := 1; ; attempt++ {
		err := r.inv.Invoke(ctx, ip)
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			log.Error("外部动作无法启动", "ip", ip.String(), "err", err)
			return err
		}

		log.Warn("外部动作失败，稍后重试",
			"ip", ip.String(),
			"attempt", attempt,
			"delay", r.delay,
			"err", err)

		timer := r.clock.Timer(r.delay)
		if r.hook != nil {
			r.hook(attempt, err)
		}

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
