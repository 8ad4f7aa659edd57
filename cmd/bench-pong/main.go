// Package main 提供 pong 应答服务
//
// 对每个 4 字节 "ping" 回复 "pong"，配合 bench-ping 使用。
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dep2p/go-keepalive/config"
	"github.com/dep2p/go-keepalive/internal/bench"
	"github.com/dep2p/go-keepalive/internal/core/metrics"
)

func main() {
	host := flag.String("host", "0.0.0.0", "监听地址")
	port := flag.Uint("port", config.DefaultPort, "监听端口")
	flag.Parse()

	if err := run(net.JoinHostPort(*host, strconv.Itoa(int(*port)))); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bw := metrics.NewBandwidthCounter()
	s := bench.NewPong(addr, bw)
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	err := s.Stop()

	stats := bw.Totals()
	fmt.Printf("pings=%d pongs=%d bytes_in=%d bytes_out=%d\n",
		stats.MsgsIn, stats.MsgsOut, stats.TotalIn, stats.TotalOut)
	return err
}
