package action

import (
	"fmt"

	"github.com/dep2p/go-keepalive/config"
)

// FromConfig 按配置创建单次调用器（不含重试）
func FromConfig(cfg config.ActionConfig) (Invoker, error) {
	switch cfg.Kind {
	case "", config.ActionExec:
		return NewExecInvoker(cfg.Command), nil
	case config.ActionDNS:
		return NewDNSUpdateInvoker(DNSConfig{
			Server:        cfg.DNS.Server,
			Zone:          cfg.DNS.Zone,
			Name:          cfg.DNS.Name,
			TTL:           cfg.DNS.TTL,
			TSIGName:      cfg.DNS.TSIGName,
			TSIGSecret:    cfg.DNS.TSIGSecret,
			TSIGAlgorithm: cfg.DNS.TSIGAlgorithm,
			Timeout:       cfg.DNS.Timeout.Duration(),
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown action kind %q", config.ErrInvalidValue, cfg.Kind)
	}
}
