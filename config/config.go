// Package config 提供心跳服务的配置管理
//
// 服务端、客户端和基准工具各有独立的配置结构体，均支持：
//   - Default*Config 返回默认值
//   - 从 JSON 配置文件加载（文件中缺失的键保留默认值）
//   - 环境变量覆盖（KEEPALIVE_ 前缀，优先级高于配置文件）
//   - Validate 校验
//
// 配置文件键与旧版 profile 保持一致：server、port、password、log_info、log_err。
//
// 使用示例：
//
//	cfg, err := config.LoadClientConfig("/etc/keepalive/client.json")
//	if err != nil {
//	    return err
//	}
//	cfg.ApplyEnv()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

// ============================================================================
//                              环境变量
// ============================================================================

// 环境变量名
const (
	EnvPrefix = "KEEPALIVE_"

	EnvPassword = "PASSWORD"
	EnvPort     = "PORT"
	EnvServer   = "SERVER"
	EnvLogInfo  = "LOG_INFO"
	EnvLogErr   = "LOG_ERR"
)

// DefaultPort 默认端口
const DefaultPort = 1234

// ============================================================================
//                              公共配置
// ============================================================================

// Common 服务端与客户端共享的配置项
type Common struct {
	// Server 客户端：服务端地址；服务端：监听地址
	Server string `json:"server"`

	// Port 端口
	Port uint16 `json:"port"`

	// Password 共享口令（必填）
	Password string `json:"password"`

	// LogInfo 普通日志文件，为空则输出到标准错误
	LogInfo string `json:"log_info,omitempty"`

	// LogErr 错误日志文件，为空则与 LogInfo 相同
	LogErr string `json:"log_err,omitempty"`

	// MetricsAddr prometheus /metrics 监听地址，为空则不启用
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// Address 返回 host:port
func (c Common) Address() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(int(c.Port)))
}

// applyEnv 应用环境变量覆盖
func (c *Common) applyEnv() {
	if v := os.Getenv(EnvPrefix + EnvPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvPrefix + EnvServer); v != "" {
		c.Server = v
	}
	if v := os.Getenv(EnvPrefix + EnvPort); v != "" {
		if port, err := strconv.ParseUint(v, 10, 16); err == nil {
			c.Port = uint16(port)
		}
	}
	if v := os.Getenv(EnvPrefix + EnvLogInfo); v != "" {
		c.LogInfo = v
	}
	if v := os.Getenv(EnvPrefix + EnvLogErr); v != "" {
		c.LogErr = v
	}
}

// validate 校验公共配置
func (c Common) validate() error {
	if c.Password == "" {
		return ErrMissingPassword
	}
	if c.Port == 0 {
		return fmt.Errorf("%w: 0", ErrInvalidPort)
	}
	if c.Server == "" {
		return fmt.Errorf("%w: server address is empty", ErrInvalidValue)
	}
	return nil
}

// ============================================================================
//                              加载
// ============================================================================

// loadJSON 从 JSON 文件加载到 v（v 已填充默认值）
func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadServerConfig 从 JSON 文件加载服务端配置
//
// path 为空时返回默认配置。
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	if err := loadJSON(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClientConfig 从 JSON 文件加载客户端配置
//
// path 为空时返回默认配置。
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path == "" {
		return cfg, nil
	}
	if err := loadJSON(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
