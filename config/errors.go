package config

import "errors"

var (
	// ErrMissingPassword 未配置共享口令
	ErrMissingPassword = errors.New("config: password is required")

	// ErrInvalidPort 端口无效
	ErrInvalidPort = errors.New("config: invalid port")

	// ErrInvalidValue 配置项取值无效
	ErrInvalidValue = errors.New("config: invalid value")
)
