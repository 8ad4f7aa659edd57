package config

import (
	"fmt"
	"time"
)

// ServerConfig 服务端配置
type ServerConfig struct {
	Common

	// SlotCapacity 槽位容量
	SlotCapacity uint32 `json:"slot_capacity"`

	// NotifyTimeout 地址通知写超时
	//
	// 通知在槽位表锁内发送，超时避免单个不读数据的连接阻塞其它认领。
	NotifyTimeout Duration `json:"notify_timeout"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Common: Common{
			Server: "0.0.0.0",
			Port:   DefaultPort,
		},
		SlotCapacity:  1,
		NotifyTimeout: Duration(5 * time.Second),
	}
}

// ApplyEnv 应用环境变量覆盖
func (c *ServerConfig) ApplyEnv() {
	c.Common.applyEnv()
}

// Validate 验证服务端配置
func (c *ServerConfig) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	if c.SlotCapacity == 0 {
		return fmt.Errorf("%w: slot_capacity must be positive", ErrInvalidValue)
	}
	if c.NotifyTimeout < 0 {
		return fmt.Errorf("%w: notify_timeout must not be negative", ErrInvalidValue)
	}
	return nil
}

// WithSlotCapacity 设置槽位容量
func (c ServerConfig) WithSlotCapacity(n uint32) ServerConfig {
	c.SlotCapacity = n
	return c
}
