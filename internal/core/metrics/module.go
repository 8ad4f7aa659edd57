package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Config 指标配置
type Config struct {
	// Addr /metrics 监听地址，为空则不暴露端点
	Addr string
}

// ModuleInput Metrics 依赖参数
type ModuleInput struct {
	fx.In

	LC     fx.Lifecycle
	Config Config `optional:"true"`
	Reg    *prometheus.Registry
}

// Module 是 metrics 的 Fx 模块
//
// 服务端与客户端指标按需构造，只有被依赖时才注册。
var Module = fx.Module("metrics",
	fx.Provide(
		NewRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		NewServerMetrics,
		NewClientMetrics,
	),
	fx.Invoke(registerEndpoint),
)

// registerEndpoint 在配置了地址时挂载 /metrics 端点
func registerEndpoint(input ModuleInput) {
	if input.Config.Addr == "" {
		return
	}

	ep := NewEndpoint(input.Config.Addr, input.Reg)
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ep.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return ep.Stop(ctx)
		},
	})
}
