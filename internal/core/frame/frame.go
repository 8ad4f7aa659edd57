package frame

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"net/netip"
	"time"
)

// ============================================================================
//                              常量
// ============================================================================

const (
	// Size 帧大小（一个 AES 分组）
	Size = 16

	// ClientMagic 客户端 → 服务端帧的标签
	ClientMagic uint32 = 0x1C2B8695

	// ServerTag 服务端 → 客户端帧的标签
	ServerTag uint32 = 0

	// readBufSize 单次读取缓冲区大小，大于 Size 以便发现多余字节
	readBufSize = Size + Size/2
)

// order 明文字段使用本机字节序，与既有部署逐位兼容
var order = binary.NativeEndian

// ============================================================================
//                              Frame
// ============================================================================

// Frame 心跳帧明文
//
//	offset  size  field
//	0       8     Nonce   发送方当前时间，只作为加密熵，不校验
//	8       4     Tag     ClientMagic 或 ServerTag
//	12      4     Payload 槽位号（客户端帧）/ IPv4 地址（服务端帧，网络序字节）
type Frame struct {
	Nonce   uint64
	Tag     uint32
	Payload uint32
}

// NewClientFrame 构造客户端认证帧
func NewClientFrame(now time.Time, slot uint32) Frame {
	return Frame{
		Nonce:   uint64(now.Unix()),
		Tag:     ClientMagic,
		Payload: slot,
	}
}

// NewServerFrame 构造服务端地址通知帧
func NewServerFrame(now time.Time, ip netip.Addr) Frame {
	return Frame{
		Nonce:   uint64(now.Unix()),
		Tag:     ServerTag,
		Payload: PayloadFromIP(ip),
	}
}

// Expect 校验帧标签
func (f Frame) Expect(tag uint32) error {
	if f.Tag != tag {
		return fmt.Errorf("%w: got %#08x, want %#08x", ErrBadTag, f.Tag, tag)
	}
	return nil
}

// Slot 返回客户端帧中的槽位号
func (f Frame) Slot() uint32 {
	return f.Payload
}

// IP 将服务端帧的载荷解释为 IPv4 地址
func (f Frame) IP() netip.Addr {
	var b [4]byte
	order.PutUint32(b[:], f.Payload)
	return netip.AddrFrom4(b)
}

// PayloadFromIP 将 IPv4 地址按网络序字节放入载荷
//
// 非 IPv4 地址（包括 IPv4-mapped IPv6 以外的 IPv6）返回 0。
func PayloadFromIP(ip netip.Addr) uint32 {
	ip = ip.Unmap()
	if !ip.Is4() {
		return 0
	}
	b := ip.As4()
	return order.Uint32(b[:])
}

// MarshalBinary 序列化为明文
func (f Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	f.put(buf)
	return buf, nil
}

// UnmarshalBinary 从明文反序列化
func (f *Frame) UnmarshalBinary(b []byte) error {
	if len(b) != Size {
		return fmt.Errorf("%w: %d bytes", ErrBadLength, len(b))
	}
	f.get(b)
	return nil
}

func (f Frame) put(b []byte) {
	order.PutUint64(b[0:8], f.Nonce)
	order.PutUint32(b[8:12], f.Tag)
	order.PutUint32(b[12:16], f.Payload)
}

func (f *Frame) get(b []byte) {
	f.Nonce = order.Uint64(b[0:8])
	f.Tag = order.Uint32(b[8:12])
	f.Payload = order.Uint32(b[12:16])
}

// ============================================================================
//                              编解码
// ============================================================================

// Encode 序列化并加密，返回 16 字节密文
func Encode(block cipher.Block, f Frame) [Size]byte {
	var buf [Size]byte
	f.put(buf[:])
	block.Encrypt(buf[:], buf[:])
	return buf
}

// Decode 解密并反序列化
//
// 密文长度不是 16 字节时返回 ErrBadLength。不校验标签，调用方需使用 Expect。
func Decode(block cipher.Block, ciphertext []byte) (Frame, error) {
	if len(ciphertext) != Size {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrBadLength, len(ciphertext))
	}
	var buf [Size]byte
	block.Decrypt(buf[:], ciphertext)

	var f Frame
	f.get(buf[:])
	return f, nil
}

// ReadFrame 从 r 读取一帧
//
// 只调用一次 Read，不跨调用缓冲，也不拼接残帧：读到的字节数不是 16
// 即为 ErrBadLength。对端关闭（0 字节 + io.EOF）同时匹配 ErrBadLength 与 io.EOF。
func ReadFrame(r io.Reader, block cipher.Block) (Frame, error) {
	var buf [readBufSize]byte
	n, err := r.Read(buf[:])
	if n == Size {
		return Decode(block, buf[:n])
	}
	if err == nil {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrBadLength, n)
	}
	if err == io.EOF {
		return Frame{}, fmt.Errorf("%w: %w", ErrBadLength, io.EOF)
	}
	return Frame{}, fmt.Errorf("read frame: %w", err)
}

// WriteFrame 加密并写出一帧
//
// 只调用一次 Write，短写返回 ErrShortWrite，不重试。
func WriteFrame(w io.Writer, block cipher.Block, f Frame) error {
	buf := Encode(block, f)
	n, err := w.Write(buf[:])
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if n != Size {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, Size)
	}
	return nil
}
