package slots

import "errors"

var (
	// ErrSlotOutOfRange 槽位号超出容量
	ErrSlotOutOfRange = errors.New("slots: slot out of range")

	// ErrNotifyFailed 向新连接发送地址通知失败
	ErrNotifyFailed = errors.New("slots: notify failed")

	// ErrTableClosed 槽位表已关闭
	ErrTableClosed = errors.New("slots: table closed")

	// ErrOccupantClosed 认领者连接已关闭
	ErrOccupantClosed = errors.New("slots: occupant closed")
)
