// Package main 提供心跳服务端命令行入口
//
// 使用方法:
//
//	keepalive-server -config server.json
//	keepalive-server -port 1234 -password secret
//
// 口令也可以通过环境变量 KEEPALIVE_PASSWORD 提供。
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

var log = logger.Logger("cmd/server")

// 命令行参数覆盖配置文件与环境变量
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	server      = flag.String("server", "", "监听地址")
	port        = flag.Uint("port", 0, "监听端口")
	password    = flag.String("password", "", "共享口令")
	slots       = flag.Uint("slots", 0, "槽位容量")
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

	cfg, err := config.LoadServerConfig(*configFile)
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

	app, err := keepalive.NewServer(cfg)
	if err != nil {
		return 1, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("启动心跳服务端", "addr", cfg.Address(), "slots", cfg.SlotCapacity)
	return app.Run(ctx)
}

// applyFlags 应用显式设置的命令行参数
func applyFlags(cfg *config.ServerConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server = *server
		case "port":
			cfg.Port = uint16(*port)
		case "password":
			cfg.Password = *password
		case "slots":
			cfg.SlotCapacity = uint32(*slots)
		case "log-info":
			cfg.LogInfo = *logInfo
		case "log-err":
			cfg.LogErr = *logErr
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		}
	})
}
