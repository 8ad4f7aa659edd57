// Package server 实现心跳服务端
//
// 服务端接受客户端连接，读取认证帧并认领槽位。槽位规则是
// “最新认领者获胜”：
//
//   - 槽位首次被认领，或认领方 IP 与记录不同：先向新连接发送地址通知，
//     通知成功后才驱逐旧连接并更新记录
//   - IP 相同：不发送通知，只替换占用连接
//   - 通知失败：关闭新连接，槽位保持不变
//
// 认领在槽位表锁内完成，同一槽位的并发认领被串行化。
package server

import (
	"context"
	"crypto/cipher"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-keepalive/config"
	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.ServerConfig
	Block   cipher.Block
	Metrics *metrics.ServerMetrics `optional:"true"`
	Clock   clock.Clock            `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Server *Server
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	cfg := input.Config

	s := NewServer(
		Config{
			ListenAddr:    cfg.Address(),
			SlotCapacity:  cfg.SlotCapacity,
			NotifyTimeout: cfg.NotifyTimeout.Duration(),
		},
		input.Block,
		WithTransportOptions(tcp.ServerOptions()),
		WithMetrics(input.Metrics),
		WithClock(input.Clock),
	)
	return ModuleOutput{Server: s}
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Server *Server
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("服务端模块启动")
			return input.Server.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			log.Info("服务端模块停止")
			return input.Server.Stop()
		},
	})
}
