// Package main 提供 echo 调试服务
//
// 把每个连接收到的数据原样输出到 stdout。
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
)

func main() {
	host := flag.String("host", "0.0.0.0", "监听地址")
	port := flag.Uint("port", config.DefaultPort, "监听端口")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := bench.NewEcho(net.JoinHostPort(*host, strconv.Itoa(int(*port))), os.Stdout)
	if err := s.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	<-ctx.Done()
	_ = s.Stop()
}
