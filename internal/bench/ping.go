package bench

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-keepalive/internal/core/metrics"
	"github.com/dep2p/go-keepalive/internal/core/transport/tcp"
)

// DefaultReportInterval 默认吞吐量报告周期
const DefaultReportInterval = 10 * time.Second

// ============================================================================
//                              配置
// ============================================================================

// PingConfig ping 负载生成器配置
type PingConfig struct {
	// Addr 目标地址 host:port
	Addr string

	// Workers 独立 worker 数
	Workers int

	// Conns 每组连接数
	Conns int

	// Groups 每个 worker 执行的组数
	Groups int

	// Repeat 每个连接的往返次数
	Repeat int

	// Report 吞吐量报告周期
	Report time.Duration
}

// Validate 校验配置
func (c PingConfig) Validate() error {
	if c.Workers <= 0 || c.Conns <= 0 || c.Groups <= 0 || c.Repeat <= 0 {
		return fmt.Errorf("%w: workers=%d conns=%d groups=%d repeat=%d",
			ErrInvalidConfig, c.Workers, c.Conns, c.Groups, c.Repeat)
	}
	return nil
}

// Total 返回完成后应有的往返总数
func (c PingConfig) Total() int64 {
	return int64(c.Workers) * int64(c.Groups) * int64(c.Conns) * int64(c.Repeat)
}

// ============================================================================
//                              Ping
// ============================================================================

// Summary 运行汇总
type Summary struct {
	Requests int64
	Elapsed  time.Duration
	Rate     float64
}

// PingOption ping 选项
type PingOption func(*Ping)

// WithClock 设置时钟（速率统计与报告周期）
func WithClock(clk clock.Clock) PingOption {
	return func(p *Ping) {
		if clk != nil {
			p.clock = clk
		}
	}
}

// WithReportHook 设置每次周期报告后的回调
func WithReportHook(hook func(Summary)) PingOption {
	return func(p *Ping) {
		p.hook = hook
	}
}

// Ping 闭环 ping 负载生成器
type Ping struct {
	cfg       PingConfig
	transport *tcp.Transport
	clock     clock.Clock
	hook      func(Summary)

	meter *metrics.RateMeter
	bw    *metrics.BandwidthCounter
}

// NewPing 创建负载生成器
func NewPing(cfg PingConfig, opts ...PingOption) *Ping {
	if cfg.Report <= 0 {
		cfg.Report = DefaultReportInterval
	}
	p := &Ping{
		cfg:       cfg,
		transport: tcp.NewTransport(tcp.PlainOptions()),
		clock:     clock.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.meter = metrics.NewRateMeterWithClock(p.clock)
	p.bw = metrics.NewBandwidthCounterWithClock(p.clock)
	return p
}

// Meter 返回往返计数器
func (p *Ping) Meter() *metrics.RateMeter {
	return p.meter
}

// Bandwidth 返回字节统计
func (p *Ping) Bandwidth() metrics.Stats {
	return p.bw.Totals()
}

// Run 运行直到所有 worker 完成或 ctx 取消
//
// 任一连接出错都会终止整个运行并返回该错误；ctx 取消时返回 nil。
func (p *Ping) Run(ctx context.Context) (Summary, error) {
	if err := p.cfg.Validate(); err != nil {
		return Summary{}, err
	}
	defer func() { _ = p.transport.Close() }()

	log.Info("ping 开始",
		"addr", p.cfg.Addr,
		"workers", p.cfg.Workers,
		"conns", p.cfg.Conns,
		"groups", p.cfg.Groups,
		"repeat", p.cfg.Repeat)

	reportCtx, stopReport := context.WithCancel(ctx)
	r := newReporter(p.clock, p.meter, p.cfg.Report, p.hook)
	reportDone := make(chan struct{})
	go func() {
		defer close(reportDone)
		r.run(reportCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		id := i
		g.Go(func() error {
			return p.worker(gctx, id)
		})
	}
	err := g.Wait()

	stopReport()
	<-reportDone

	sum := r.summary()
	log.Info("ping 结束",
		"requests", sum.Requests,
		"elapsed", sum.Elapsed.String(),
		"rate", fmt.Sprintf("%.2f/s", sum.Rate))

	if ctx.Err() != nil {
		return sum, nil
	}
	return sum, err
}

// worker 单个 worker：逐组运行，组内连接并发
func (p *Ping) worker(ctx context.Context, id int) error {
	for group := 0; group < p.cfg.Groups; group++ {
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < p.cfg.Conns; i++ {
			g.Go(func() error {
				return p.conn(gctx)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	log.Debug("worker 完成", "worker", id)
	return nil
}

// conn 单个连接：往返 repeat 次后关闭
func (p *Ping) conn(ctx context.Context) error {
	c, err := p.transport.Dial(ctx, p.cfg.Addr)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	buf := make([]byte, MsgSize)
	for i := 0; i < p.cfg.Repeat; i++ {
		if _, err := c.Write(pingMsg); err != nil {
			return err
		}
		p.bw.LogSentMessage(MsgSize)

		if _, err := io.ReadFull(c, buf); err != nil {
			return err
		}
		p.bw.LogRecvMessage(MsgSize)
		if !bytes.Equal(buf, pongMsg) {
			return fmt.Errorf("%w: %q", ErrMismatch, buf)
		}
		p.meter.Add(1)
	}
	return nil
}

// ============================================================================
//                              周期报告
// ============================================================================

type reporter struct {
	clock  clock.Clock
	meter  *metrics.RateMeter
	ticker *clock.Ticker
	hook   func(Summary)
}

// newReporter 创建报告器，ticker 在构造时启动
func newReporter(clk clock.Clock, meter *metrics.RateMeter, every time.Duration, hook func(Summary)) *reporter {
	return &reporter{
		clock:  clk,
		meter:  meter,
		ticker: clk.Ticker(every),
		hook:   hook,
	}
}

func (r *reporter) run(ctx context.Context) {
	defer r.ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ticker.C:
			sum := r.current()
			log.Info("吞吐量",
				"requests", sum.Requests,
				"rate", fmt.Sprintf("%.2f/s", sum.Rate))
			if r.hook != nil {
				r.hook(sum)
			}
		}
	}
}

// current 返回最近窗口的速率
func (r *reporter) current() Summary {
	return Summary{
		Requests: r.meter.Count(),
		Elapsed:  r.meter.Elapsed(),
		Rate:     r.meter.Rate(),
	}
}

// summary 返回整个运行期间的平均速率
func (r *reporter) summary() Summary {
	sum := Summary{
		Requests: r.meter.Count(),
		Elapsed:  r.meter.Elapsed(),
	}
	if secs := sum.Elapsed.Seconds(); secs > 0 {
		sum.Rate = float64(sum.Requests) / secs
	}
	return sum
}
