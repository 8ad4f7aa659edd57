package metrics

import (
	"sync/atomic"

	"github.com/benbjohnson/clock"
)

// Stats 流量统计快照
type Stats struct {
	TotalIn  int64   // 总入站字节
	TotalOut int64   // 总出站字节
	MsgsIn   int64   // 入站消息数
	MsgsOut  int64   // 出站消息数
	RateIn   float64 // 入站速率（字节/秒）
	RateOut  float64 // 出站速率（字节/秒）
}

// BandwidthCounter 带宽计数器
//
// 使用原子计数和 RateMeter 记录收发字节与消息数，并发安全。
type BandwidthCounter struct {
	totalIn  atomic.Int64
	totalOut atomic.Int64
	msgsIn   atomic.Int64
	msgsOut  atomic.Int64

	inRate  *RateMeter
	outRate *RateMeter
}

// NewBandwidthCounter 创建带宽计数器
func NewBandwidthCounter() *BandwidthCounter {
	return NewBandwidthCounterWithClock(clock.New())
}

// NewBandwidthCounterWithClock 使用指定时钟创建带宽计数器
func NewBandwidthCounterWithClock(clk clock.Clock) *BandwidthCounter {
	return &BandwidthCounter{
		inRate:  NewRateMeterWithClock(clk),
		outRate: NewRateMeterWithClock(clk),
	}
}

// LogSentMessage 记录出站消息的大小
func (bwc *BandwidthCounter) LogSentMessage(size int64) {
	bwc.totalOut.Add(size)
	bwc.msgsOut.Add(1)
	bwc.outRate.Add(size)
}

// LogRecvMessage 记录入站消息的大小
func (bwc *BandwidthCounter) LogRecvMessage(size int64) {
	bwc.totalIn.Add(size)
	bwc.msgsIn.Add(1)
	bwc.inRate.Add(size)
}

// Totals 返回统计快照
func (bwc *BandwidthCounter) Totals() Stats {
	return Stats{
		TotalIn:  bwc.totalIn.Load(),
		TotalOut: bwc.totalOut.Load(),
		MsgsIn:   bwc.msgsIn.Load(),
		MsgsOut:  bwc.msgsOut.Load(),
		RateIn:   bwc.inRate.Rate(),
		RateOut:  bwc.outRate.Rate(),
	}
}

// Reset 重置所有统计
func (bwc *BandwidthCounter) Reset() {
	bwc.totalIn.Store(0)
	bwc.totalOut.Store(0)
	bwc.msgsIn.Store(0)
	bwc.msgsOut.Store(0)
	bwc.inRate.Reset()
	bwc.outRate.Reset()
}
