package keepalive

import (
	"crypto/cipher"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-keepalive/config"
	"github.com/dep2p/go-keepalive/internal/core/client"
	"github.com/dep2p/go-keepalive/internal/core/crypt"
	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/server"
	"github.com/dep2p/go-keepalive/internal/util/logger"
)

var fxLogger = logger.Logger("fx")

// buildServerApp 构建服务端 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置、密码块、时钟
//  2. Metrics（注册表与可选 /metrics 端点）
//  3. Server（监听、槽位表）
func buildServerApp(cfg *config.ServerConfig, o *options, srv **server.Server) (*fx.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(func() (cipher.Block, error) { return newBlock(cfg.Password) }),
		fx.Supply(metrics.Config{Addr: cfg.MetricsAddr}),
		metrics.Module,
		server.Module(),
		fx.Populate(srv),
	}
	return newFxApp(modules, o), nil
}

// buildClientApp 构建客户端 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置、密码块、时钟
//  2. Metrics
//  3. Client（动作调用器、拨号传输、会话）
func buildClientApp(cfg *config.ClientConfig, o *options, session **client.Session) (*fx.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(func() (cipher.Block, error) { return newBlock(cfg.Password) }),
		fx.Supply(metrics.Config{Addr: cfg.MetricsAddr}),
		metrics.Module,
		client.Module(),
		fx.Populate(session),
	}
	return newFxApp(modules, o), nil
}

// newFxApp 追加公共选项并创建应用
func newFxApp(modules []fx.Option, o *options) *fx.App {
	if clk := o.clock; clk != nil {
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	modules = append(modules,
		fx.StartTimeout(o.startTimeout),
		fx.StopTimeout(o.stopTimeout),
		// 禁用 Fx 日志输出（避免干扰业务日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	fxLogger.Debug("组装 Fx 应用", "modules", len(modules))
	return fx.New(modules...)
}

// newBlock 由口令构造密码块，失败即进程致命
func newBlock(password string) (cipher.Block, error) {
	block, err := crypt.NewBlock(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCryptoInit, err)
	}
	return block, nil
}
