package keepalive

import "errors"

// 公共错误定义
var (
	// ErrAlreadyStarted 应用已启动
	ErrAlreadyStarted = errors.New("app already started")

	// ErrAppClosed 应用已关闭
	ErrAppClosed = errors.New("app closed")

	// ErrCryptoInit 由口令构造密码块失败
	ErrCryptoInit = errors.New("crypto init failed")
)
