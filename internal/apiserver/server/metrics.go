// Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics API Server 指标集合
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 认证指标
	LoginAttemptsTotal *prometheus.CounterVec // result: success | fail | throttled
	ActiveSessions     prometheus.Gauge

	// WebSocket 指标
	WSConnectionsActive prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// NewMetrics 创建（或复用）指标实例
//
// promauto 注册到默认 Registry，重复注册会 panic，
// 因此进程内只创建一次，后续调用返回同一实例。
func NewMetrics(namespace string) *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "http_requests_total",
					Help:      "Total HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Name:      "http_request_duration_seconds",
					Help:      "HTTP request duration in seconds",
					Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"method", "path"},
			),
			HTTPRequestsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "http_requests_in_flight",
					Help:      "Current number of HTTP requests being processed",
				},
			),
			LoginAttemptsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Name:      "login_attempts_total",
					Help:      "Total login attempts by result",
				},
				[]string{"result"},
			),
			ActiveSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "active_sessions",
					Help:      "Sessions issued and not yet expired (approximate)",
				},
			),
			WSConnectionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "websocket_connections_active",
					Help:      "Active WebSocket connections",
				},
			),
		}
	})
	return metricsInst
}

// MetricsMiddleware HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// RecordLoginAttempt 记录一次登录尝试
func (m *Metrics) RecordLoginAttempt(result string) {
	m.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// SessionIssued 记录一次会话签发
//
// 无服务端会话表，到期时间已知，计数在 TTL 后自动回落，
// 因此 active_sessions 是近似值（登出不立即扣减）。
func (m *Metrics) SessionIssued(ttl time.Duration) {
	m.ActiveSessions.Inc()
	time.AfterFunc(ttl, m.ActiveSessions.Dec)
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath 规范化路径，将 ID 替换为占位符避免高基数
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/banners/") && len(path) > len("/api/v1/banners/"):
		return "/api/v1/banners/{id}"
	case strings.HasPrefix(path, "/api/v1/admin/banners/") && len(path) > len("/api/v1/admin/banners/"):
		return "/api/v1/admin/banners/{id}"
	case strings.HasPrefix(path, "/api/v1/facilities/") && len(path) > len("/api/v1/facilities/"):
		return "/api/v1/facilities/{id}"
	default:
		return path
	}
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
