package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-keepalive/internal/util/logger"
)

var log = logger.Logger("metrics")

// Endpoint /metrics HTTP 端点
type Endpoint struct {
	addr     string
	srv      *http.Server
	listener net.Listener
}

// NewEndpoint 创建指标端点
func NewEndpoint(addr string, gatherer prometheus.Gatherer) *Endpoint {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Endpoint{
		addr: addr,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start 开始监听
func (e *Endpoint) Start(_ context.Context) error {
	l, err := net.Listen("tcp", e.addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", e.addr, err)
	}
	e.listener = l

	go func() {
		if err := e.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("指标端点异常退出", "err", err)
		}
	}()

	log.Info("指标端点已启动", "addr", l.Addr().String())
	return nil
}

// Addr 返回实际监听地址
func (e *Endpoint) Addr() string {
	if e.listener == nil {
		return e.addr
	}
	return e.listener.Addr().String()
}

// Stop 关闭端点
func (e *Endpoint) Stop(ctx context.Context) error {
	return e.srv.Shutdown(ctx)
}
