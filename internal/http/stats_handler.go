package httpapi

import (
	"net/http"
	"time"

	"mindspire-notifier/internal/stats"

	"go.uber.org/zap"
)

// StatsHandler 面板统计 Handler
type StatsHandler struct {
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatsHandler 创建统计 Handler
func NewStatsHandler(notifier Notifier, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// GetDashboard 当前快照的面板统计
func (h *StatsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.notifier.LoadSnapshot(r.Context())
	if err != nil {
		h.logger.Error("Failed to load snapshot", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load snapshot"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(stats.Compute(snapshot, h.now())))
}
