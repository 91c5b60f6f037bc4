// Package metrics 作业执行与评审子系统的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager 持有全部指标
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// ── 业务指标 ──
	trackingTransitions *prometheus.CounterVec
	pauseReviews        *prometheus.CounterVec
	autoFlags           *prometheus.CounterVec
	carryOvers          prometheus.Counter
	reviewsSubmitted    prometheus.Counter
	pointsApplied       prometheus.Counter
	jobRunDuration      *prometheus.HistogramVec
	jobRunErrors        *prometheus.CounterVec

	// ── HTTP 指标 ──
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// 全局指标实例，注册在独立注册表上，不混入默认 Go 运行时指标
var (
	customRegistry = prometheus.NewRegistry()
	globalManager  = NewManager(WithPrometheusRegistry(customRegistry))
)

// NewManager 创建指标管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "berthops",
		subsystem:        "workflow",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.trackingTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracking_transitions_total",
		Help:      "作业状态迁移次数（按动作）",
	}, []string{"action"})

	m.pauseReviews = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pause_reviews_total",
		Help:      "暂停申请审批次数（按结果）",
	}, []string{"outcome"})

	m.autoFlags = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "auto_flags_total",
		Help:      "班末自动标记的作业数（按标记类型）",
	}, []string{"flag_type"})

	m.carryOvers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "carry_overs_total",
		Help:      "结转作业数",
	})

	m.reviewsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reviews_submitted_total",
		Help:      "已提交的日审数",
	})

	m.pointsApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_applied_total",
		Help:      "计入工人累计积分的增量绝对值之和",
	})

	m.jobRunDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_run_duration_seconds",
		Help:      "自动标记/绩效汇总单次运行耗时",
		Buckets:   m.histogramBuckets,
	}, []string{"job"})

	m.jobRunErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_run_errors_total",
		Help:      "自动标记/绩效汇总失败次数",
	}, []string{"job"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP 请求数",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// RecordTransition 记录一次作业状态迁移
func RecordTransition(action string) {
	globalManager.trackingTransitions.WithLabelValues(action).Inc()
}

// RecordPauseReview 记录一次暂停审批
func RecordPauseReview(outcome string) {
	globalManager.pauseReviews.WithLabelValues(outcome).Inc()
}

// RecordAutoFlag 记录自动标记数量
func RecordAutoFlag(flagType string, count int) {
	if count <= 0 {
		return
	}
	globalManager.autoFlags.WithLabelValues(flagType).Add(float64(count))
}

func RecordCarryOver() {
	globalManager.carryOvers.Inc()
}

func RecordReviewSubmitted() {
	globalManager.reviewsSubmitted.Inc()
}

// RecordPointsApplied 记录计入账本的积分增量（取绝对值）
func RecordPointsApplied(delta int) {
	if delta < 0 {
		delta = -delta
	}
	globalManager.pointsApplied.Add(float64(delta))
}

// ObserveBatchRun 记录批处理耗时（秒）
func ObserveBatchRun(job string, seconds float64) {
	globalManager.jobRunDuration.WithLabelValues(job).Observe(seconds)
}

func RecordBatchError(job string) {
	globalManager.jobRunErrors.WithLabelValues(job).Inc()
}

// RecordHTTPRequest 记录 HTTP 请求及耗时
func RecordHTTPRequest(endpoint, method, status string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(seconds)
}

// GetRegistry 返回自定义注册表，供 /metrics 暴露
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
