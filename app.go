package keepalive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-keepalive/config"
	"github.com/dep2p/go-keepalive/internal/core/client"
	"github.com/dep2p/go-keepalive/internal/core/server"
	"github.com/dep2p/go-keepalive/internal/util/logger"
)

var log = logger.Logger("keepalive")

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期常量
// ════════════════════════════════════════════════════════════════════════════

const (
	// defaultStartTimeout 启动超时（Fx App Start）
	defaultStartTimeout = 15 * time.Second

	// defaultStopTimeout 停止超时
	defaultStopTimeout = 10 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              App
// ════════════════════════════════════════════════════════════════════════════

// App 心跳应用（服务端或客户端）
type App struct {
	name string
	app  *fx.App
	opts *options

	server  *server.Server
	session *client.Session

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewServer 创建服务端应用
func NewServer(cfg *config.ServerConfig, opts ...Option) (*App, error) {
	o := defaultOptions()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}

	a := &App{name: "server", opts: o}
	app, err := buildServerApp(cfg, o, &a.server)
	if err != nil {
		return nil, err
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build server app: %w", err)
	}
	a.app = app
	return a, nil
}

// NewClient 创建客户端应用
func NewClient(cfg *config.ClientConfig, opts ...Option) (*App, error) {
	o := defaultOptions()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}

	a := &App{name: "client", opts: o}
	app, err := buildClientApp(cfg, o, &a.session)
	if err != nil {
		return nil, err
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build client app: %w", err)
	}
	a.app = app
	return a, nil
}

// Server 返回服务端实例，客户端应用返回 nil
func (a *App) Server() *server.Server {
	return a.server
}

// Session 返回客户端会话，服务端应用返回 nil
func (a *App) Session() *client.Session {
	return a.session
}

// Start 启动应用
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAppClosed
	}
	if a.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, a.opts.startTimeout)
	defer cancel()

	if err := a.app.Start(startCtx); err != nil {
		log.Error("应用启动失败", "app", a.name, "err", err)
		return fmt.Errorf("start %s: %w", a.name, err)
	}
	a.started = true
	log.Info("应用已启动", "app", a.name, "version", Version)
	return nil
}

// Stop 停止应用，可重复调用
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	if !a.started {
		return nil
	}

	if err := a.app.Stop(ctx); err != nil {
		return fmt.Errorf("stop %s: %w", a.name, err)
	}
	log.Info("应用已停止", "app", a.name)
	return nil
}

// Wait 返回应用关闭信号通道
func (a *App) Wait() <-chan fx.ShutdownSignal {
	return a.app.Wait()
}

// Run 启动应用并阻塞到 ctx 取消或应用请求关闭，返回进程退出码
//
// 会话遇到致命错误（外部命令无法启动）时退出码为 1。
func (a *App) Run(ctx context.Context) (int, error) {
	if err := a.Start(ctx); err != nil {
		return 1, err
	}

	code := 0
	select {
	case <-ctx.Done():
		log.Info("收到退出信号", "app", a.name)
	case sig := <-a.Wait():
		code = sig.ExitCode
		log.Info("应用请求关闭", "app", a.name, "code", code)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), a.opts.stopTimeout)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return max(code, 1), err
	}
	return code, nil
}
