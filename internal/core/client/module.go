// Package client 实现心跳客户端会话
//
// 会话状态机：
//
//	Disconnected ──dial──▶ Connecting ──auth_sent──▶ AuthPending ──notified──▶ Established
//	     ▲                      │                         │                     │  ▲
//	     └──────── failure ─────┴─────────────────────────┴─────────────────────┘  └─ notified
//
// 每收到一帧服务端帧都执行一次外部动作；任何失败都关闭连接，
// 等待固定重连间隔（默认 1 秒）后重新拨号。
package client

import (
	"context"
	"crypto/cipher"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-keepalive/config"
	"github.com/dep2p/go-keepalive/internal/core/action"
	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.ClientConfig
	Block   cipher.Block
	Metrics *metrics.ClientMetrics `optional:"true"`
	Clock   clock.Clock            `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Session   *Session
	Transport *tcp.Transport `name:"client_transport"`
}

// ============================================================================
//                              服务提供
// ============================================================================

// transportOptions 由配置生成拨号选项
func transportOptions(cfg *config.ClientConfig) tcp.Options {
	opts := tcp.DefaultOptions()
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout.Duration()
	}
	opts.KeepAlive = tcp.KeepAlive{
		Enabled:  cfg.KeepAlive.Enable,
		Idle:     cfg.KeepAlive.Idle.Duration(),
		Interval: cfg.KeepAlive.Interval.Duration(),
		Count:    cfg.KeepAlive.Count,
	}
	return opts
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := input.Config

	clk := input.Clock
	if clk == nil {
		clk = clock.New()
	}

	inv, err := action.FromConfig(cfg.Action)
	if err != nil {
		return ModuleOutput{}, err
	}

	retryOpts := []action.RetrierOption{
		action.WithClock(clk),
		action.WithDelay(cfg.Action.RetryDelay.Duration()),
	}
	if input.Metrics != nil {
		retries := input.Metrics.ActionRetries
		retryOpts = append(retryOpts, action.WithRetryHook(func(int, error) { retries.Inc() }))
	}

	tr := tcp.NewTransport(transportOptions(cfg))
	session := NewSession(
		Config{
			Addr:           cfg.Address(),
			Slot:           cfg.Slot,
			ReconnectDelay: cfg.ReconnectDelay.Duration(),
		},
		input.Block,
		TCPDialer(tr),
		action.NewRetrier(inv, retryOpts...),
		WithClock(clk),
		WithMetrics(input.Metrics),
	)

	return ModuleOutput{
		Session:   session,
		Transport: tr,
	}, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("client",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Session    *Session
	Transport  *tcp.Transport `name:"client_transport"`
}

// registerLifecycle 注册生命周期
//
// 会话因致命错误退出时以退出码 1 关闭整个应用。
func registerLifecycle(input lifecycleInput) {
	var (
		cancel context.CancelFunc
		done   = make(chan struct{})
	)

	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("客户端模块启动")

			// fx OnStart 的 ctx 在返回后取消，会话使用独立 ctx
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go func() {
				defer close(done)
				if err := input.Session.Run(ctx); err != nil {
					log.Error("客户端会话异常退出", "err", err)
					_ = input.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("客户端模块停止")
			if cancel != nil {
				cancel()
				select {
				case <-done:
				case <-ctx.Done():
				}
			}
			return input.Transport.Close()
		},
	})
}
