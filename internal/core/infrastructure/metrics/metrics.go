// Package metrics 提供基于 Prometheus 的运行指标
//
// 📊 **运行指标 (Runtime Metrics)**
//
// - Metrics：网络、周期任务、Feature 生命周期指标，实现 metrics.Recorder
// - RuntimeSampler：进程运行时采样，既导出为 Prometheus 指标，也向周期统计日志贡献一段文本
//
// 每个 Metrics 使用独立的 prometheus.Registry，便于测试中并存多个实例，
// 由状态服务通过 promhttp 暴露 /metrics。
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
)

const namespace = "standpoint"

// Metrics Prometheus 指标集合
type Metrics struct {
	registry *prometheus.Registry

	connectionsActive  *prometheus.GaugeVec
	connectionsTotal   *prometheus.CounterVec
	connectionLifetime *prometheus.HistogramVec
	messagesTotal      *prometheus.CounterVec
	messageLatency     *prometheus.HistogramVec
	handlerErrors      *prometheus.CounterVec
	framesDropped      prometheus.Counter
	framesDroppedBytes prometheus.Counter

	loopRuns     *prometheus.CounterVec
	loopFailures *prometheus.CounterVec

	featureOps      *prometheus.CounterVec
	featureDuration *prometheus.HistogramVec

	// 供统计日志使用的累计值
	accepted atomic.Uint64
	messages atomic.Uint64
	dropped  atomic.Uint64
}

var _ metricsiface.Recorder = (*Metrics)(nil)

// New 创建指标集合并注册到新的 Registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "connections_active",
			Help:      "Number of connections currently being dispatched.",
		}, []string{"transport"}),
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "connections_total",
			Help:      "Total connections accepted.",
		}, []string{"transport"}),
		connectionLifetime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "connection_lifetime_seconds",
			Help:      "Time from accept to close.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"transport"}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "messages_total",
			Help:      "Framed messages dispatched to controllers.",
		}, []string{"transport"}),
		messageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "message_handle_seconds",
			Help:      "Handler latency including filters and response write.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport"}),
		handlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "handler_errors_total",
			Help:      "Errors returned or panics raised by controllers.",
		}, []string{"transport"}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "framer",
			Name:      "frames_dropped_total",
			Help:      "Messages discarded for exceeding the maximum message size.",
		}),
		framesDroppedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "framer",
			Name:      "dropped_bytes_total",
			Help:      "Bytes discarded for exceeding the maximum message size.",
		}),
		loopRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asyncloop",
			Name:      "runs_total",
			Help:      "Executions of periodic tasks.",
		}, []string{"loop"}),
		loopFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asyncloop",
			Name:      "failures_total",
			Help:      "Periodic task executions that ended the loop with an error.",
		}, []string{"loop"}),
		featureOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feature",
			Name:      "operations_total",
			Help:      "Feature start/stop calls by result.",
		}, []string{"feature", "op", "result"}),
		featureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feature",
			Name:      "operation_seconds",
			Help:      "Duration of feature start/stop calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"feature", "op"}),
	}

	m.registry.MustRegister(
		m.connectionsActive,
		m.connectionsTotal,
		m.connectionLifetime,
		m.messagesTotal,
		m.messageLatency,
		m.handlerErrors,
		m.framesDropped,
		m.framesDroppedBytes,
		m.loopRuns,
		m.loopFailures,
		m.featureOps,
		m.featureDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister 注册额外的采集器
func (m *Metrics) MustRegister(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

// ConnectionOpened 实现 NetworkRecorder
func (m *Metrics) ConnectionOpened(transport string) {
	m.accepted.Add(1)
	m.connectionsTotal.WithLabelValues(transport).Inc()
	m.connectionsActive.WithLabelValues(transport).Inc()
}

// ConnectionClosed 实现 NetworkRecorder
func (m *Metrics) ConnectionClosed(transport string, lifetime time.Duration) {
	m.connectionsActive.WithLabelValues(transport).Dec()
	m.connectionLifetime.WithLabelValues(transport).Observe(lifetime.Seconds())
}

// MessageHandled 实现 NetworkRecorder
func (m *Metrics) MessageHandled(transport string, latency time.Duration) {
	m.messages.Add(1)
	m.messagesTotal.WithLabelValues(transport).Inc()
	m.messageLatency.WithLabelValues(transport).Observe(latency.Seconds())
}

// HandlerError 实现 NetworkRecorder
func (m *Metrics) HandlerError(transport string) {
	m.handlerErrors.WithLabelValues(transport).Inc()
}

// FrameDropped 实现 NetworkRecorder
func (m *Metrics) FrameDropped(bytes int) {
	m.dropped.Add(1)
	m.framesDropped.Inc()
	m.framesDroppedBytes.Add(float64(bytes))
}

// LoopRun 实现 LoopRecorder
func (m *Metrics) LoopRun(name string, _ time.Duration, err error) {
	m.loopRuns.WithLabelValues(name).Inc()
	if err != nil {
		m.loopFailures.WithLabelValues(name).Inc()
	}
}

// FeatureOp 实现 FeatureRecorder
func (m *Metrics) FeatureOp(feature, op string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.featureOps.WithLabelValues(feature, op, result).Inc()
	m.featureDuration.WithLabelValues(feature, op).Observe(duration.Seconds())
}

// Totals 统计日志使用的累计值
type Totals struct {
	Accepted      uint64
	Messages      uint64
	FramesDropped uint64
}

// Totals 返回累计值
func (m *Metrics) Totals() Totals {
	return Totals{
		Accepted:      m.accepted.Load(),
		Messages:      m.messages.Load(),
		FramesDropped: m.dropped.Load(),
	}
}
