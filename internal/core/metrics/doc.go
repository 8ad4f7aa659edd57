// Package metrics 提供心跳服务的监控指标
//
// 两类指标：
//
//   - prometheus 指标：ServerMetrics / ClientMetrics，注册到独立的
//     prometheus.Registry，可通过 Endpoint 以 /metrics 暴露
//   - 进程内计量：RateMeter（60 秒滑动窗口）与 BandwidthCounter，
//     供基准工具定期输出吞吐量
//
// # Fx 模块
//
//	app := fx.New(
//	    fx.Supply(metrics.Config{Addr: "127.0.0.1:9100"}),
//	    metrics.Module,
//	    fx.Invoke(func(m *metrics.ServerMetrics) { ... }),
//	)
//
// # 并发安全
//
// 所有类型都可并发使用：prometheus 收集器自身并发安全，
// RateMeter 以互斥锁保护桶、以原子量保存累计值。
package metrics
