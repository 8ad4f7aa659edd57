package client

import "errors"

var (
	// ErrInvalidTransition 当前状态不接受该事件
	ErrInvalidTransition = errors.New("client: invalid state transition")

	// ErrAlreadyRunning 会话已在运行
	ErrAlreadyRunning = errors.New("client: session already running")
)

// ErrDial 拨号失败
var ErrDial = errors.New("client: dial failed")
