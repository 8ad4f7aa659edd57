package frame

import "errors"

var (
	// ErrBadLength 收到的字节数不是一个完整帧
	ErrBadLength = errors.New("frame: bad length")

	// ErrBadTag 帧标签与方向不符
	ErrBadTag = errors.New("frame: bad tag")

	// ErrShortWrite 帧未能一次写完
	ErrShortWrite = errors.New("frame: short write")
)

// IsProtocolError 判断是否为帧格式错误（长度或标签）
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrBadLength) || errors.Is(err, ErrBadTag)
}
