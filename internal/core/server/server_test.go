package server

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"
	"net"
	"net/netip"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-keepalive/internal/core/frame"
	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/slots"
)

// ============================================================================
//                              测试辅助
// ============================================================================

func testBlock(t *testing.T) cipher.Block {
	t.Helper()
	block, err := aes.NewCipher(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	return block
}

type harness struct {
	srv     *Server
	metrics *metrics.ServerMetrics
	block   cipher.Block
}

func startServer(t *testing.T, capacity uint32) *harness {
	t.Helper()

	h := &harness{
		metrics: metrics.NewServerMetrics(prometheus.NewRegistry()),
		block:   testBlock(t),
	}
	h.srv = NewServer(Config{
		ListenAddr:    "127.0.0.1:0",
		SlotCapacity:  capacity,
		NotifyTimeout: time.Second,
	}, h.block, WithMetrics(h.metrics))

	require.NoError(t, h.srv.Start(context.Background()))
	t.Cleanup(func() { _ = h.srv.Stop() })
	return h
}

// dial 从指定本地地址连接服务端，local 为空时由系统选择
func (h *harness) dial(t *testing.T, local string) net.Conn {
	t.Helper()

	d := net.Dialer{Timeout: 2 * time.Second}
	if local != "" {
		d.LocalAddr = &net.TCPAddr{IP: net.ParseIP(local)}
	}
	c, err := d.Dial("tcp", h.srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (h *harness) auth(t *testing.T, c net.Conn, slot uint32) {
	t.Helper()
	require.NoError(t, frame.WriteFrame(c, h.block, frame.NewClientFrame(time.Now(), slot)))
}

func (h *harness) readNotify(t *testing.T, c net.Conn) netip.Addr {
	t.Helper()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, frame.Size)
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)

	f, err := frame.Decode(h.block, buf)
	require.NoError(t, err)
	require.NoError(t, f.Expect(frame.ServerTag))
	return f.IP()
}

func (h *harness) claims() float64 {
	return testutil.ToFloat64(h.metrics.Claims)
}

func (h *harness) waitClaims(t *testing.T, n float64) {
	t.Helper()
	require.Eventually(t, func() bool { return h.claims() >= n },
		2*time.Second, 10*time.Millisecond)
}

// expectClosed 断言服务端已关闭连接
func expectClosed(t *testing.T, c net.Conn) {
	t.Helper()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := c.Read(make([]byte, frame.Size))
	require.Error(t, err)

	var ne net.Error
	if errors.As(err, &ne) {
		assert.False(t, ne.Timeout(), "连接应被关闭而不是超时")
	}
}

// expectSilent 断言在 d 内没有收到任何数据
func expectSilent(t *testing.T, c net.Conn, d time.Duration) {
	t.Helper()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(d)))
	n, err := c.Read(make([]byte, frame.Size))
	assert.Zero(t, n)

	var ne net.Error
	require.True(t, errors.As(err, &ne) && ne.Timeout(), "unexpected: %v", err)
}

// ============================================================================
//                              认领
// ============================================================================

// TestServer_FirstClaimNotifies 槽位首次认领时通知客户端其 IP
func TestServer_FirstClaimNotifies(t *testing.T) {
	h := startServer(t, 1)
	c := h.dial(t, "")

	h.auth(t, c, 0)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), h.readNotify(t, c))

	h.waitClaims(t, 1)
	entry, ok := h.srv.Table().Lookup(0)
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), entry.IP)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Notifications))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.FramesSent))
}

// TestServer_RepeatedAuthNotifiesOnce 同一连接重复认证不再通知
func TestServer_RepeatedAuthNotifiesOnce(t *testing.T) {
	h := startServer(t, 1)
	c := h.dial(t, "")

	h.auth(t, c, 0)
	h.readNotify(t, c)

	h.auth(t, c, 0)
	h.auth(t, c, 0)
	h.waitClaims(t, 3)
	expectSilent(t, c, 100*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Notifications))
	assert.Zero(t, testutil.ToFloat64(h.metrics.Evictions))
}

// TestServer_SameIPEvictsWithoutNotify 相同 IP 的新连接替换旧连接且不通知
func TestServer_SameIPEvictsWithoutNotify(t *testing.T) {
	h := startServer(t, 1)

	old := h.dial(t, "")
	h.auth(t, old, 0)
	h.readNotify(t, old)

	c := h.dial(t, "")
	h.auth(t, c, 0)
	h.waitClaims(t, 2)

	expectClosed(t, old)
	expectSilent(t, c, 100*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Notifications))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Evictions))
}

// TestServer_IPChangeNotifiesThenEvicts 不同 IP 的认领先通知新连接再驱逐旧连接
func TestServer_IPChangeNotifiesThenEvicts(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("需要 127.0.0.0/8 回环地址")
	}
	h := startServer(t, 1)

	old := h.dial(t, "127.0.0.1")
	h.auth(t, old, 0)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), h.readNotify(t, old))

	c := h.dial(t, "127.0.0.2")
	h.auth(t, c, 0)
	assert.Equal(t, netip.MustParseAddr("127.0.0.2"), h.readNotify(t, c))
	expectClosed(t, old)

	h.waitClaims(t, 2)
	entry, ok := h.srv.Table().Lookup(0)
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("127.0.0.2"), entry.IP)
	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.Notifications))
}

// TestServer_IndependentSlots 不同槽位互不影响
func TestServer_IndependentSlots(t *testing.T) {
	h := startServer(t, 2)

	a := h.dial(t, "")
	h.auth(t, a, 0)
	h.readNotify(t, a)

	b := h.dial(t, "")
	h.auth(t, b, 1)
	h.readNotify(t, b)

	h.waitClaims(t, 2)
	expectSilent(t, a, 100*time.Millisecond)
	assert.Equal(t, 2, h.srv.Table().Len())
	assert.Zero(t, testutil.ToFloat64(h.metrics.Evictions))
}

// ============================================================================
//                              拒绝
// ============================================================================

// TestServer_SlotOutOfRange 越界槽位关闭连接且不通知
func TestServer_SlotOutOfRange(t *testing.T) {
	h := startServer(t, 1)
	c := h.dial(t, "")

	h.auth(t, c, 1)
	expectClosed(t, c)

	assert.Zero(t, h.srv.Table().Len())
	assert.Zero(t, testutil.ToFloat64(h.metrics.Notifications))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.ErrorsTotal.WithLabelValues("slot_out_of_range")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// TestServer_TruncatedFrame 不足一帧的数据关闭连接且不通知
func TestServer_TruncatedFrame(t *testing.T) {
	h := startServer(t, 1)
	c := h.dial(t, "")

	ct := frame.Encode(h.block, frame.NewClientFrame(time.Now(), 0))
	_, err := c.Write(ct[:10])
	require.NoError(t, err)
	// 接收低水位为一帧，半关闭让服务端读到残帧
	require.NoError(t, c.(*net.TCPConn).CloseWrite())

	expectClosed(t, c)
	assert.Zero(t, h.srv.Table().Len())
	assert.Zero(t, testutil.ToFloat64(h.metrics.Notifications))
}

// TestServer_BadTag 标签错误关闭连接
func TestServer_BadTag(t *testing.T) {
	h := startServer(t, 1)
	c := h.dial(t, "")

	bad := frame.NewClientFrame(time.Now(), 0)
	bad.Tag = frame.ServerTag
	require.NoError(t, frame.WriteFrame(c, h.block, bad))

	expectClosed(t, c)
	assert.Zero(t, h.srv.Table().Len())
}

// TestServer_WrongKey 密钥不同的客户端解密出错误标签
func TestServer_WrongKey(t *testing.T) {
	h := startServer(t, 1)
	c := h.dial(t, "")

	other, err := aes.NewCipher(bytes.Repeat([]byte{0x24}, 32))
	require.NoError(t, err)
	require.NoError(t, frame.WriteFrame(c, other, frame.NewClientFrame(time.Now(), 0)))

	expectClosed(t, c)
	assert.Zero(t, h.srv.Table().Len())
}

// TestServer_PeerCloseKeepsSlot 客户端断开后槽位记录保留
func TestServer_PeerCloseKeepsSlot(t *testing.T) {
	h := startServer(t, 1)

	c := h.dial(t, "")
	h.auth(t, c, 0)
	h.readNotify(t, c)
	require.NoError(t, c.Close())

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.ActiveConnections) == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := h.srv.Table().Lookup(0)
	assert.True(t, ok)

	// 同 IP 重连不再通知
	c2 := h.dial(t, "")
	h.auth(t, c2, 0)
	h.waitClaims(t, 2)
	expectSilent(t, c2, 100*time.Millisecond)
}

// ============================================================================
//                              生命周期
// ============================================================================

// TestServer_StopClosesConnections 停止服务关闭所有连接
func TestServer_StopClosesConnections(t *testing.T) {
	h := startServer(t, 1)

	c := h.dial(t, "")
	h.auth(t, c, 0)
	h.readNotify(t, c)

	addr := h.srv.Addr().String()
	require.NoError(t, h.srv.Stop())
	require.NoError(t, h.srv.Stop())

	expectClosed(t, c)
	_, err := net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)

	assert.ErrorIs(t, h.srv.Start(context.Background()), ErrServerClosed)
}

func TestServer_StartTwice(t *testing.T) {
	h := startServer(t, 1)
	addr := h.srv.Addr()
	require.NoError(t, h.srv.Start(context.Background()))
	assert.Equal(t, addr, h.srv.Addr())
}

func TestServer_ListenError(t *testing.T) {
	s := NewServer(Config{ListenAddr: "bad address"}, testBlock(t))
	assert.Error(t, s.Start(context.Background()))
	assert.Nil(t, s.Addr())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "bad_tag", errorKind(frame.ErrBadTag))
	assert.Equal(t, "bad_length", errorKind(frame.ErrBadLength))
	assert.Equal(t, "evicted", errorKind(slots.ErrOccupantClosed))
	assert.Equal(t, "transport", errorKind(errors.New("reset")))
}

func TestNextAcceptDelay(t *testing.T) {
	d := nextAcceptDelay(0)
	assert.Equal(t, minAcceptDelay, d)

	d = nextAcceptDelay(d)
	assert.Equal(t, 2*minAcceptDelay, d)

	for i := 0; i < 20; i++ {
		d = nextAcceptDelay(d)
	}
	assert.Equal(t, maxAcceptDelay, d)
}
