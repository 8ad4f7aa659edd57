package bench

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
)

func startServer(t *testing.T, s *Server) string {
	t.Helper()
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })
	return s.Addr().String()
}

// ============================================================================
//                              ping / pong
// ============================================================================

func TestPingPong(t *testing.T) {
	bw := metrics.NewBandwidthCounter()
	addr := startServer(t, NewPong("127.0.0.1:0", bw))

	cfg := PingConfig{
		Addr:    addr,
		Workers: 2,
		Conns:   3,
		Groups:  2,
		Repeat:  5,
	}
	p := NewPing(cfg)

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Total(), sum.Requests)
	assert.Equal(t, int64(60), sum.Requests)

	stats := p.Bandwidth()
	assert.Equal(t, int64(60*MsgSize), stats.TotalOut)
	assert.Equal(t, int64(60*MsgSize), stats.TotalIn)

	require.Eventually(t, func() bool {
		return bw.Totals().MsgsOut == 60
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPing_Mismatch(t *testing.T) {
	addr := startServer(t, NewServer("127.0.0.1:0", func(_ context.Context, conn *tcp.Conn) error {
		buf := make([]byte, MsgSize)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return err
		}
		_, err := conn.Write([]byte("pang"))
		return err
	}))

	p := NewPing(PingConfig{Addr: addr, Workers: 1, Conns: 1, Groups: 1, Repeat: 3})
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestPing_Refused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	p := NewPing(PingConfig{Addr: addr, Workers: 1, Conns: 1, Groups: 1, Repeat: 1})
	_, err = p.Run(context.Background())
	assert.Error(t, err)
}

func TestPing_InvalidConfig(t *testing.T) {
	p := NewPing(PingConfig{Addr: "127.0.0.1:1", Workers: 0, Conns: 1, Groups: 1, Repeat: 1})
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestPing_Cancel 取消时中断阻塞的读取并返回 nil
func TestPing_Cancel(t *testing.T) {
	accepted := make(chan struct{}, 1)
	addr := startServer(t, NewServer("127.0.0.1:0", func(ctx context.Context, conn *tcp.Conn) error {
		accepted <- struct{}{}
		<-ctx.Done()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewPing(PingConfig{Addr: addr, Workers: 1, Conns: 1, Groups: 1, Repeat: 1}).Run(ctx)
		done <- err
	}()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("连接未建立")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("取消后未退出")
	}
}

func TestPong_RejectsGarbage(t *testing.T) {
	addr := startServer(t, NewPong("127.0.0.1:0", nil))

	c, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Write([]byte("pang"))
	require.NoError(t, err)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = c.Read(make([]byte, MsgSize))
	assert.ErrorIs(t, err, io.EOF)
}

// ============================================================================
//                              echo
// ============================================================================

// syncBuffer 并发安全的缓冲区
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEcho(t *testing.T) {
	out := &syncBuffer{}
	addr := startServer(t, NewEcho("127.0.0.1:0", out))

	c, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	_, err = c.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = c.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	require.Eventually(t, func() bool {
		return out.String() == "hello world"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_StopIdempotent(t *testing.T) {
	s := NewPong("127.0.0.1:0", nil)
	require.NoError(t, s.Start(context.Background()))
	addr := s.Addr().String()

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	_, err := net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}

// ============================================================================
//                              报告
// ============================================================================

func TestAcceptBackoff(t *testing.T) {
	d := acceptBackoff(0)
	assert.Equal(t, 5*time.Millisecond, d)
	assert.Equal(t, 10*time.Millisecond, acceptBackoff(d))
	assert.Equal(t, maxAcceptDelay, acceptBackoff(800*time.Millisecond))
	assert.Equal(t, maxAcceptDelay, acceptBackoff(maxAcceptDelay))
}

func TestReporter_Periodic(t *testing.T) {
	mock := clock.NewMock()
	meter := metrics.NewRateMeterWithClock(mock)

	reports := make(chan Summary, 1)
	r := newReporter(mock, meter, 10*time.Second, func(s Summary) { reports <- s })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.run(ctx)

	meter.Add(5)
	mock.Add(10 * time.Second)

	select {
	case s := <-reports:
		assert.Equal(t, int64(5), s.Requests)
		assert.InDelta(t, 0.5, s.Rate, 0.001)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到周期报告")
	}
}

func TestReporter_Summary(t *testing.T) {
	mock := clock.NewMock()
	meter := metrics.NewRateMeterWithClock(mock)
	r := newReporter(mock, meter, time.Second, nil)
	defer r.ticker.Stop()

	meter.Add(100)
	mock.Add(4 * time.Second)

	sum := r.summary()
	assert.Equal(t, int64(100), sum.Requests)
	assert.Equal(t, 4*time.Second, sum.Elapsed)
	assert.InDelta(t, 25.0, sum.Rate, 0.001)
}

func TestPingConfig(t *testing.T) {
	cfg := PingConfig{Workers: 8, Conns: 128, Groups: 2, Repeat: 5000}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, int64(8*128*2*5000), cfg.Total())
}
