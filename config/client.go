package config

import (
	"fmt"
	"time"
)

// 外部动作类型
const (
	ActionExec = "exec"
	ActionDNS  = "dns"
)

// ClientConfig 客户端配置
type ClientConfig struct {
	Common

	// Slot 认领的槽位号
	Slot uint32 `json:"slot"`

	// ReconnectDelay 断开后的重连间隔
	ReconnectDelay Duration `json:"reconnect_delay"`

	// DialTimeout 拨号超时
	DialTimeout Duration `json:"dial_timeout"`

	// Action 收到新 IP 后执行的外部动作
	Action ActionConfig `json:"action"`

	// KeepAlive TCP keepalive 参数
	KeepAlive KeepAliveConfig `json:"keepalive"`
}

// ActionConfig 外部动作配置
type ActionConfig struct {
	// Kind 动作类型：exec（默认）或 dns
	Kind string `json:"kind"`

	// Command exec 动作的命令路径，以 `<command> <dotted-ipv4>` 调用
	Command string `json:"command"`

	// RetryDelay 失败重试间隔
	RetryDelay Duration `json:"retry_delay"`

	// DNS dns 动作配置
	DNS DNSActionConfig `json:"dns,omitempty"`
}

// DNSActionConfig RFC 2136 动态更新配置
type DNSActionConfig struct {
	Server        string   `json:"server"`
	Zone          string   `json:"zone"`
	Name          string   `json:"name"`
	TTL           uint32   `json:"ttl,omitempty"`
	TSIGName      string   `json:"tsig_name,omitempty"`
	TSIGSecret    string   `json:"tsig_secret,omitempty"`
	TSIGAlgorithm string   `json:"tsig_algorithm,omitempty"`
	Timeout       Duration `json:"timeout,omitempty"`
}

// KeepAliveConfig TCP keepalive 配置
type KeepAliveConfig struct {
	Enable   bool     `json:"enable"`
	Idle     Duration `json:"idle"`
	Interval Duration `json:"interval"`
	Count    int      `json:"count"`
}

// DefaultClientConfig 返回默认客户端配置
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Common: Common{
			Server: "127.0.0.1",
			Port:   DefaultPort,
		},
		Slot:           0,
		ReconnectDelay: Duration(time.Second),
		DialTimeout:    Duration(10 * time.Second),
		Action: ActionConfig{
			Kind:       ActionExec,
			Command:    "/data/usr/bin/pen_update_ip",
			RetryDelay: Duration(time.Second),
		},
		KeepAlive: KeepAliveConfig{
			Enable:   true,
			Idle:     Duration(60 * time.Second),
			Interval: Duration(3 * time.Second),
			Count:    20,
		},
	}
}

// ApplyEnv 应用环境变量覆盖
func (c *ClientConfig) ApplyEnv() {
	c.Common.applyEnv()
}

// Validate 验证客户端配置
func (c *ClientConfig) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: reconnect_delay must be positive", ErrInvalidValue)
	}
	if err := c.Action.Validate(); err != nil {
		return err
	}
	if c.KeepAlive.Enable && c.KeepAlive.Count < 0 {
		return fmt.Errorf("%w: keepalive count must not be negative", ErrInvalidValue)
	}
	return nil
}

// Validate 验证动作配置
func (c ActionConfig) Validate() error {
	if c.RetryDelay <= 0 {
		return fmt.Errorf("%w: action retry_delay must be positive", ErrInvalidValue)
	}
	switch c.Kind {
	case ActionExec, "":
		if c.Command == "" {
			return fmt.Errorf("%w: action command is empty", ErrInvalidValue)
		}
	case ActionDNS:
		if c.DNS.Server == "" || c.DNS.Zone == "" {
			return fmt.Errorf("%w: dns action requires server and zone", ErrInvalidValue)
		}
		if (c.DNS.TSIGName == "") != (c.DNS.TSIGSecret == "") {
			return fmt.Errorf("%w: tsig_name and tsig_secret must be set together", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidValue, c.Kind)
	}
	return nil
}

// WithSlot 设置槽位号
func (c ClientConfig) WithSlot(slot uint32) ClientConfig {
	c.Slot = slot
	return c
}

// WithCommand 设置 exec 动作命令
func (c ClientConfig) WithCommand(path string) ClientConfig {
	c.Action.Kind = ActionExec
	c.Action.Command = path
	return c
}
