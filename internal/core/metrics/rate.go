package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
// RateMeter - 速率计算器
// ============================================================================

// rateWindow 滑动窗口桶数（每桶 1 秒）
const rateWindow = 60

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶来计算最近 60 秒的平均速率，另外维护一个不受窗口
// 影响的累计值，供基准工具输出最终汇总。
type RateMeter struct {
	mu       sync.RWMutex
	clock    clock.Clock
	buckets  [rateWindow]int64
	lastIdx  int
	lastTime time.Time
	started  time.Time

	count atomic.Int64
}

// NewRateMeter 创建速率计算器
func NewRateMeter() *RateMeter {
	return NewRateMeterWithClock(clock.New())
}

// NewRateMeterWithClock 使用指定时钟创建速率计算器
func NewRateMeterWithClock(clk clock.Clock) *RateMeter {
	now := clk.Now()
	return &RateMeter{
		clock:    clk,
		lastTime: now,
		started:  now,
	}
}

// Add 添加到当前桶
func (r *RateMeter) Add(n int64) {
	r.count.Add(n)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(r.clock.Now())
	r.buckets[r.lastIdx] += n
}

// advance 按经过的整秒数移动桶，调用方持有写锁
func (r *RateMeter) advance(now time.Time) {
	elapsed := now.Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}

	seconds := int(elapsed / time.Second)
	if seconds >= rateWindow {
		// 超过窗口没有数据
		r.buckets = [rateWindow]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % rateWindow
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}

// Rate 返回窗口内平均速率（单位/秒）
//
// 启动不足一个窗口时按实际经过时间平均。
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.advance(now)

	var total int64
	for _, v := range r.buckets {
		total += v
	}

	span := now.Sub(r.started)
	if span > rateWindow*time.Second {
		span = rateWindow * time.Second
	}
	if span < time.Second {
		span = time.Second
	}
	return float64(total) / span.Seconds()
}

// Total 返回窗口内总量
func (r *RateMeter) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(r.clock.Now())

	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return total
}

// Count 返回自创建（或 Reset）以来的累计值
func (r *RateMeter) Count() int64 {
	return r.count.Load()
}

// Elapsed 返回自创建（或 Reset）以来的时长
func (r *RateMeter) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clock.Since(r.started)
}

// Reset 重置速率计算器
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.buckets = [rateWindow]int64{}
	r.lastIdx = 0
	r.lastTime = now
	r.started = now
	r.count.Store(0)
}

// LastUpdate 返回最后一次桶推进时间
func (r *RateMeter) LastUpdate() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastTime
}
