package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "keepalive"

// NewRegistry 创建独立的 prometheus 注册表
//
// 附带 Go 运行时和进程指标。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ============================================================================
//                              服务端指标
// ============================================================================

// ServerMetrics 服务端指标
type ServerMetrics struct {
	ActiveConnections prometheus.Gauge
	TotalConnections  prometheus.Counter

	FramesReceived prometheus.Counter
	FramesSent     prometheus.Counter

	Claims        prometheus.Counter
	Notifications prometheus.Counter
	Evictions     prometheus.Counter

	ErrorsTotal *prometheus.CounterVec

	ConnectionDuration prometheus.Histogram
}

// NewServerMetrics 创建并注册服务端指标
func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "active_connections",
			Help:      "Number of open heartbeat connections",
		}),
		TotalConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total number of accepted heartbeat connections",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "frames_received_total",
			Help:      "Total number of valid client frames received",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "frames_sent_total",
			Help:      "Total number of server frames sent",
		}),
		Claims: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "slot_claims_total",
			Help:      "Total number of successful slot claims",
		}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "ip_notifications_total",
			Help:      "Total number of IP change notifications sent",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "evictions_total",
			Help:      "Total number of previous slot occupants evicted",
		}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "errors_total",
			Help:      "Total number of connection errors by type",
		}, []string{"error_type"}),
		ConnectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connection_duration_seconds",
			Help:      "Lifetime of heartbeat connections",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.TotalConnections,
		m.FramesReceived,
		m.FramesSent,
		m.Claims,
		m.Notifications,
		m.Evictions,
		m.ErrorsTotal,
		m.ConnectionDuration,
	)
	return m
}

// RecordConnection 记录新连接
func (m *ServerMetrics) RecordConnection() {
	m.TotalConnections.Inc()
	m.ActiveConnections.Inc()
}

// RecordDisconnection 记录连接关闭
func (m *ServerMetrics) RecordDisconnection(seconds float64) {
	m.ActiveConnections.Dec()
	m.ConnectionDuration.Observe(seconds)
}

// RecordError 记录错误
func (m *ServerMetrics) RecordError(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ============================================================================
//                              客户端指标
// ============================================================================

// ClientMetrics 客户端指标
type ClientMetrics struct {
	State *prometheus.GaugeVec

	Connects      prometheus.Counter
	DialFailures  prometheus.Counter
	Disconnects   *prometheus.CounterVec
	Notifications prometheus.Counter

	ActionRetries   prometheus.Counter
	ActionSuccesses prometheus.Counter
}

// NewClientMetrics 创建并注册客户端指标
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "state",
			Help:      "Current session state (1 for the active state)",
		}, []string{"state"}),
		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "connects_total",
			Help:      "Total number of successful connections to the server",
		}),
		DialFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "dial_failures_total",
			Help:      "Total number of failed dials",
		}),
		Disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "disconnects_total",
			Help:      "Total number of disconnects by reason",
		}, []string{"reason"}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "ip_notifications_total",
			Help:      "Total number of IP notifications received",
		}),
		ActionRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "action_retries_total",
			Help:      "Total number of external action retries",
		}),
		ActionSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "action_successes_total",
			Help:      "Total number of successful external action runs",
		}),
	}

	reg.MustRegister(
		m.State,
		m.Connects,
		m.DialFailures,
		m.Disconnects,
		m.Notifications,
		m.ActionRetries,
		m.ActionSuccesses,
	)
	return m
}

// SetState 将 state 标记为当前状态
func (m *ClientMetrics) SetState(state string) {
	m.State.Reset()
	m.State.WithLabelValues(state).Set(1)
}

// RecordDisconnect 记录断开
func (m *ClientMetrics) RecordDisconnect(reason string) {
	m.Disconnects.WithLabelValues(reason).Inc()
}
