package action

import (
	"context"
	"net/netip"

	"github.com/dep2p/go-keepalive/internal/util/logger"
)

var log = logger.Logger("action")

// Invoker 外部动作，Invoke 执行一次尝试
type Invoker interface {
	Invoke(ctx context.Context, ip netip.Addr) error
}

// InvokerFunc 函数适配器
type InvokerFunc func(ctx context.Context, ip netip.Addr) error

// Invoke 实现 Invoker
func (f InvokerFunc) Invoke(ctx context.Context, ip netip.Addr) error {
	return f(ctx, ip)
}
