package keepalive

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
)

// Option 应用配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	clock         clock.Clock
	startTimeout  time.Duration
	stopTimeout   time.Duration
	userFxOptions []fx.Option
}

func defaultOptions() *options {
	return &options{
		startTimeout: defaultStartTimeout,
		stopTimeout:  defaultStopTimeout,
	}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// WithClock 替换所有组件使用的时钟
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		if clk == nil {
			return fmt.Errorf("clock must not be nil")
		}
		o.clock = clk
		return nil
	}
}

// WithStartTimeout 设置启动超时
func WithStartTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("start timeout must be positive: %s", d)
		}
		o.startTimeout = d
		return nil
	}
}

// WithStopTimeout 设置停止超时
func WithStopTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("stop timeout must be positive: %s", d)
		}
		o.stopTimeout = d
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
