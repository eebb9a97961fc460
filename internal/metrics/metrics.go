package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推导执行次数
	DeriveRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_derive_runs_total",
			Help: "Total number of derivation passes",
		},
		[]string{"status"}, // status: success, error
	)

	// 推导耗时（秒）
	DeriveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notifier_derive_duration_seconds",
			Help:    "Derivation pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	// 新建通知计数
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	// 当天已存在而跳过的通知计数
	NotificationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_notifications_skipped_total",
			Help: "Total number of derived notifications skipped as duplicates",
		},
		[]string{"type"},
	)

	// 外发计数
	DispatchCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_dispatch_total",
			Help: "Total number of outbound notification deliveries",
		},
		[]string{"channel", "status"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

// RecordDeriveRun 记录一次推导
func RecordDeriveRun(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DeriveRuns.WithLabelValues(status).Inc()
	DeriveDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, statusClass(status)).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
