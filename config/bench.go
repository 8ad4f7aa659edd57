package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// BenchConfig 吞吐量基准工具配置
type BenchConfig struct {
	// Host 目标或监听地址
	Host string `json:"host"`

	// Port 端口
	Port uint16 `json:"port"`

	// Workers 独立工作协程数
	Workers int `json:"workers"`

	// Conns 每组连接数
	Conns int `json:"conns"`

	// Groups 每个工作协程执行的组数
	Groups int `json:"groups"`

	// Repeat 每个连接的 ping/pong 往返次数
	Repeat int `json:"repeat"`

	// Report 吞吐量报告周期
	Report Duration `json:"report"`
}

// DefaultBenchConfig 返回默认基准配置
func DefaultBenchConfig() *BenchConfig {
	return &BenchConfig{
		Host:    "127.0.0.1",
		Port:    DefaultPort,
		Workers: 8,
		Conns:   128,
		Groups:  2,
		Repeat:  5000,
		Report:  Duration(10 * time.Second),
	}
}

// Address 返回 host:port
func (c *BenchConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Validate 验证基准配置
func (c *BenchConfig) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("%w: 0", ErrInvalidPort)
	}
	if c.Workers <= 0 || c.Conns <= 0 || c.Groups <= 0 || c.Repeat <= 0 {
		return fmt.Errorf("%w: workers/conns/groups/repeat must be positive", ErrInvalidValue)
	}
	if c.Report <= 0 {
		return fmt.Errorf("%w: report must be positive", ErrInvalidValue)
	}
	return nil
}
