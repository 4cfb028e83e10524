// Package metrics 签到链路的 Prometheus 指标。
// 所有方法对 nil 接收者安全，测试与未启用指标时可直接传 nil。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "umuganda"

// Metrics 指标集合，使用独立 Registry，避免全局注册冲突
type Metrics struct {
	registry *prometheus.Registry

	checkins     *prometheus.CounterVec
	checkouts    *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	certificates *prometheus.CounterVec
	badges       *prometheus.CounterVec
	followUps    *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		checkins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "checkins_total",
			Help:      "Check-in attempts by result",
		}, []string{"result"}),
		checkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "checkouts_total",
			Help:      "Check-out attempts by result",
		}, []string{"result"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkin_code",
			Name:      "issued_total",
			Help:      "Check-in code issue requests by outcome (reused, created, regenerated)",
		}, []string{"outcome"}),
		certificates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificate",
			Name:      "ensure_total",
			Help:      "Certificate ensure calls by outcome",
		}, []string{"outcome"}),
		badges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "badge",
			Name:      "awarded_total",
			Help:      "Milestone badges newly awarded",
		}, []string{"badge"}),
		followUps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "checkout_followup_errors_total",
			Help:      "Best-effort checkout follow-up failures by step",
		}, []string{"step"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler /metrics 暴露端点
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 底层 Registry（测试读取指标）
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CheckinResult(result string) {
	if m == nil {
		return
	}
	m.checkins.WithLabelValues(result).Inc()
}

func (m *Metrics) CheckoutResult(result string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
}

func (m *Metrics) TokenIssued(outcome string) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CertificateEnsured(outcome string) {
	if m == nil {
		return
	}
	m.certificates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BadgeAwarded(badge string) {
	if m == nil {
		return
	}
	m.badges.WithLabelValues(badge).Inc()
}

func (m *Metrics) FollowUpFailed(step string) {
	if m == nil {
		return
	}
	m.followUps.WithLabelValues(step).Inc()
}

// ObserveHTTP 记录一次 HTTP 请求耗时
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
