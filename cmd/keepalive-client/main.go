// Package main 提供心跳客户端命令行入口
//
// 使用方法:
//
//	keepalive-client -config client.json
//	keepalive-client -server 203.0.113.1 -port 1234 -password secret -command /usr/local/bin/update-ip
//
// 外部命令以 `<command> <dotted-ipv4>` 调用，退出码 0 视为成功，
// 非零退出每秒重试一次；命令无法启动时进程以退出码 1 退出。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	keepalive "github.com/dep2p/go-keepalive"
	"github.com/dep2p/go-keepalive/config"
	"github.com/dep2p/go-keepalive/internal/util/logger"
)

var log = logger.Logger("cmd/client")

// 命令行参数覆盖配置文件与环境变量
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	server      = flag.String("server", "", "服务端地址")
	port        = flag.Uint("port", 0, "服务端端口")
	password    = flag.String("password", "", "共享口令")
	slot        = flag.Uint("slot", 0, "槽位号")
	command     = flag.String("command", "", "地址更新命令")
	logInfo     = flag.String("log-info", "", "普通日志文件")
	logErr      = flag.String("log-err", "", "错误日志文件")
	metricsAddr = flag.String("metrics", "", "/metrics 监听地址")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run() (int, error) {
	flag.Parse()

	if *showVersion {
		fmt.Println(keepalive.VersionInfo())
		return 0, nil
	}

	cfg, err := config.LoadClientConfig(*configFile)
	if err != nil {
		return 1, err
	}
	cfg.ApplyEnv()
	applyFlags(cfg)

	closer, err := logger.SetupFiles(cfg.LogInfo, cfg.LogErr)
	if err != nil {
		return 1, err
	}
	defer func() { _ = closer.Close() }()

	app, err := keepalive.NewClient(cfg)
	if err != nil {
		return 1, err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	log.Info("启动心跳客户端",
		"server", cfg.Address(),
		"slot", cfg.Slot,
		"action", cfg.Action.Kind)
	return app.Run(ctx)
}

// applyFlags 应用显式设置的命令行参数
func applyFlags(cfg *config.ClientConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server = *server
		case "port":
			cfg.Port = uint16(*port)
		case "password":
			cfg.Password = *password
		case "slot":
			cfg.Slot = uint32(*slot)
		case "command":
			cfg.Action.Kind = config.ActionExec
			cfg.Action.Command = *command
		case "log-info":
			cfg.LogInfo = *logInfo
		case "log-err":
			cfg.LogErr = *logErr
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		}
	})
}
