package client

import "fmt"

// ============================================================================
//                              状态与事件
// ============================================================================

// State 会话状态
type State int

const (
	// StateDisconnected 未连接，等待（重）连
	StateDisconnected State = iota
	// StateConnecting 正在拨号
	StateConnecting
	// StateAuthPending 已发送认证帧，等待服务端帧
	StateAuthPending
	// StateEstablished 已收到服务端帧
	StateEstablished
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthPending:
		return "auth_pending"
	case StateEstablished:
		return "established"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event 驱动状态转换的事件
type Event int

const (
	// EventDial 启动或重连间隔到期，开始拨号
	EventDial Event = iota
	// EventAuthSent 连接建立且认证帧已写出
	EventAuthSent
	// EventNotified 收到有效的服务端帧
	EventNotified
	// EventFailure 拨号失败、协议错误、传输错误或对端关闭
	EventFailure
	// EventStop 会话停止
	EventStop
)

// String 返回事件名
func (e Event) String() string {
	switch e {
	case EventDial:
		return "dial"
	case EventAuthSent:
		return "auth_sent"
	case EventNotified:
		return "notified"
	case EventFailure:
		return "failure"
	case EventStop:
		return "stop"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// next 计算状态转换，ok 为 false 表示该状态下不接受此事件
func next(s State, e Event) (State, bool) {
	switch e {
	case EventDial:
		if s == StateDisconnected {
			return StateConnecting, true
		}
	case EventAuthSent:
		if s == StateConnecting {
			return StateAuthPending, true
		}
	case EventNotified:
		if s == StateAuthPending || s == StateEstablished {
			return StateEstablished, true
		}
	case EventFailure:
		if s != StateDisconnected {
			return StateDisconnected, true
		}
	case EventStop:
		return StateDisconnected, true
	}
	return s, false
}

// Observer 状态变化观察者
//
// 回调在会话 goroutine 中同步执行，不应阻塞。
type Observer interface {
	OnStateChange(from, to State)
}

// ObserverFunc 函数适配器
type ObserverFunc func(from, to State)

// OnStateChange 实现 Observer
func (f ObserverFunc) OnStateChange(from, to State) {
	f(from, to)
}
