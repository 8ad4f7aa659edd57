package bench

import "errors"

var (
	// ErrMismatch 回复内容与预期不符
	ErrMismatch = errors.New("bench: unexpected reply")

	// ErrInvalidConfig 基准配置无效
	ErrInvalidConfig = errors.New("bench: invalid config")
)
