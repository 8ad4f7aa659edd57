package action

import "errors"

var (
	// ErrSpawn 无法启动外部命令（不存在、无权限、fork 失败），不可重试
	ErrSpawn = errors.New("action: spawn failed")

	// ErrCommandFailed 外部命令非零退出或被信号终止，可重试
	ErrCommandFailed = errors.New("action: command failed")

	// ErrDNSUpdate DNS 动态更新失败，可重试
	ErrDNSUpdate = errors.New("action: dns update failed")

	// ErrNotIPv4 地址不是 IPv4
	ErrNotIPv4 = errors.New("action: not an IPv4 address")
)

// IsFatal 判断错误是否不可重试
func IsFatal(err error) bool {
	return errors.Is(err, ErrSpawn)
}
