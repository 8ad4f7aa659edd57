package frame

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlock(t *testing.T) cipher.Block {
	t.Helper()
	block, err := aes.NewCipher(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	return block
}

// chunkReader 每次 Read 返回一个预设块
type chunkReader struct {
	chunks [][]byte
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

// shortWriter 每次只写出 limit 字节
type shortWriter struct {
	limit int
	buf   bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	return w.buf.Write(p)
}

// ============================================================================
//                              编解码
// ============================================================================

func TestEncodeDecode_RoundTrip(t *testing.T) {
	block := testBlock(t)
	now := time.Unix(1700000000, 0)

	cases := []Frame{
		NewClientFrame(now, 0),
		NewClientFrame(now, 7),
		NewServerFrame(now, netip.MustParseAddr("203.0.113.9")),
		{Nonce: ^uint64(0), Tag: 0xFFFFFFFF, Payload: 0xFFFFFFFF},
	}
	for _, f := range cases {
		ct := Encode(block, f)
		got, err := Decode(block, ct[:])
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestEncode_Encrypts(t *testing.T) {
	block := testBlock(t)
	f := NewClientFrame(time.Unix(1700000000, 0), 3)

	plain, err := f.MarshalBinary()
	require.NoError(t, err)

	ct := Encode(block, f)
	assert.NotEqual(t, plain, ct[:])
}

func TestDecode_BadLength(t *testing.T) {
	block := testBlock(t)
	for _, n := range []int{0, 15, 17, 32} {
		_, err := Decode(block, make([]byte, n))
		assert.ErrorIs(t, err, ErrBadLength, "len=%d", n)
	}
}

func TestDecode_WrongKeyFailsTag(t *testing.T) {
	block := testBlock(t)
	other, err := aes.NewCipher(bytes.Repeat([]byte{0x24}, 32))
	require.NoError(t, err)

	ct := Encode(block, NewClientFrame(time.Unix(1700000000, 0), 0))
	f, err := Decode(other, ct[:])
	require.NoError(t, err)
	assert.ErrorIs(t, f.Expect(ClientMagic), ErrBadTag)
}

func TestExpect(t *testing.T) {
	now := time.Unix(1700000000, 0)

	assert.NoError(t, NewClientFrame(now, 0).Expect(ClientMagic))
	assert.NoError(t, NewServerFrame(now, netip.MustParseAddr("10.0.0.1")).Expect(ServerTag))

	err := NewClientFrame(now, 0).Expect(ServerTag)
	assert.ErrorIs(t, err, ErrBadTag)
	assert.True(t, IsProtocolError(err))
}

func TestUnmarshalBinary_BadLength(t *testing.T) {
	var f Frame
	assert.ErrorIs(t, f.UnmarshalBinary(make([]byte, 15)), ErrBadLength)
}

// ============================================================================
//                              IP 载荷
// ============================================================================

func TestIP_NetworkOrderBytes(t *testing.T) {
	ip := netip.MustParseAddr("192.168.1.20")
	f := NewServerFrame(time.Now(), ip)

	plain, err := f.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{192, 168, 1, 20}, plain[12:16])
	assert.Equal(t, ip, f.IP())
}

func TestPayloadFromIP_Mapped(t *testing.T) {
	mapped := netip.MustParseAddr("::ffff:10.1.2.3")
	assert.Equal(t, PayloadFromIP(netip.MustParseAddr("10.1.2.3")), PayloadFromIP(mapped))
	assert.Equal(t, uint32(0), PayloadFromIP(netip.MustParseAddr("2001:db8::1")))
}

// ============================================================================
//                              读写
// ============================================================================

func TestReadFrame(t *testing.T) {
	block := testBlock(t)
	want := NewClientFrame(time.Unix(1700000000, 0), 1)
	ct := Encode(block, want)

	got, err := ReadFrame(&chunkReader{chunks: [][]byte{ct[:]}}, block)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadFrame_PartialIsBadLength(t *testing.T) {
	block := testBlock(t)
	ct := Encode(block, NewClientFrame(time.Now(), 1))

	// 残帧不会与后续字节拼接
	r := &chunkReader{chunks: [][]byte{ct[:15], ct[15:]}}
	_, err := ReadFrame(r, block)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestReadFrame_ExcessIsBadLength(t *testing.T) {
	block := testBlock(t)
	ct := Encode(block, NewClientFrame(time.Now(), 1))

	r := &chunkReader{chunks: [][]byte{append(ct[:], 0)}}
	_, err := ReadFrame(r, block)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestReadFrame_EOF(t *testing.T) {
	_, err := ReadFrame(&chunkReader{}, testBlock(t))
	assert.ErrorIs(t, err, ErrBadLength)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_TransportError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := ReadFrame(&chunkReader{err: boom}, testBlock(t))
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsProtocolError(err))
}

func TestWriteFrame(t *testing.T) {
	block := testBlock(t)
	want := NewServerFrame(time.Now(), netip.MustParseAddr("198.51.100.4"))

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, block, want))
	require.Equal(t, Size, buf.Len())

	got, err := ReadFrame(&buf, block)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteFrame_Short(t *testing.T) {
	w := &shortWriter{limit: 10}
	err := WriteFrame(w, testBlock(t), NewClientFrame(time.Now(), 0))
	assert.ErrorIs(t, err, ErrShortWrite)
}
