package httpapi

import (
	"net/http"
	"time"

	"mindspire-notifier/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	// 按路由模式记录，避免 id 造成标签膨胀
	_, pattern := r.mux.Handler(req)
	r.mux.ServeHTTP(rec, req)

	if pattern == "" {
		pattern = "unmatched"
	}
	metrics.RecordHTTPRequest(req.Method, pattern, rec.status, time.Since(start))
	r.logger.Debug("HTTP request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
	)
}

// RegisterNotificationRoutes 注册通知相关路由
func (r *Router) RegisterNotificationRoutes(h *NotificationHandler) {
	r.HandleHandler("/api/v1/notifications", h)
	r.HandleHandler("/api/v1/notifications/", h)
}

// RegisterStatsRoutes 注册统计路由
func (r *Router) RegisterStatsRoutes(h *StatsHandler) {
	r.Handle("/api/v1/stats/dashboard", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetDashboard(w, req)
	})
}

// RegisterSystemRoutes 注册健康检查与指标
func (r *Router) RegisterSystemRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	})
	r.HandleHandler("/metrics", promhttp.Handler())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
