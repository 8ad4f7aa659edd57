// Package main 提供 ping 吞吐量压测工具
//
// 使用方法:
//
//	bench-ping -host 127.0.0.1 -port 1234 -workers 8 -conns 128 -groups 2 -repeat 5000
//
// 每 10 秒输出一次最近窗口的吞吐量，结束时输出整体汇总。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dep2p/go-keepalive/config"
	"github.com/dep2p/go-keepalive/internal/bench"
)

func main() {
	cfg := config.DefaultBenchConfig()

	flag.StringVar(&cfg.Host, "host", cfg.Host, "目标地址")
	port := flag.Uint("port", uint(cfg.Port), "目标端口")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "独立 worker 数")
	flag.IntVar(&cfg.Conns, "conns", cfg.Conns, "每组连接数")
	flag.IntVar(&cfg.Groups, "groups", cfg.Groups, "每个 worker 的组数")
	flag.IntVar(&cfg.Repeat, "repeat", cfg.Repeat, "每个连接的往返次数")
	report := flag.Duration("report", cfg.Report.Duration(), "吞吐量报告周期")
	flag.Parse()

	cfg.Port = uint16(*port)
	cfg.Report = config.Duration(*report)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.BenchConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := bench.NewPing(bench.PingConfig{
		Addr:    cfg.Address(),
		Workers: cfg.Workers,
		Conns:   cfg.Conns,
		Groups:  cfg.Groups,
		Repeat:  cfg.Repeat,
		Report:  cfg.Report.Duration(),
	})

	sum, err := p.Run(ctx)
	fmt.Printf("requests=%d elapsed=%s rate=%.2f/s\n", sum.Requests, sum.Elapsed, sum.Rate)
	return err
}
