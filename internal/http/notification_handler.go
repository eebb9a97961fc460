package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mindspire-notifier/internal/models"
	"mindspire-notifier/internal/repository"
	"mindspire-notifier/internal/service"

	"go.uber.org/zap"
)

const notificationsPath = "/api/v1/notifications"

// Notifier 处理器依赖的服务能力
type Notifier interface {
	Store() repository.NotificationStore
	RunOnce(ctx context.Context, now time.Time) (*service.RunResult, error)
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
}

// NotificationHandler 通知 Handler
type NotificationHandler struct {
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotificationHandler 创建通知 Handler
func NewNotificationHandler(notifier Notifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == notificationsPath && r.Method == http.MethodGet:
		h.ListNotifications(w, r)
	case path == notificationsPath+"/unread-count" && r.Method == http.MethodGet:
		h.GetUnreadCount(w, r)
	case path == notificationsPath+"/read-all" && r.Method == http.MethodPut:
		h.MarkAllAsRead(w, r)
	case path == notificationsPath+"/export" && r.Method == http.MethodGet:
		h.ExportNotifications(w, r)
	case path == notificationsPath+"/derive" && r.Method == http.MethodPost:
		h.Derive(w, r)
	case strings.HasSuffix(path, "/read") && r.Method == http.MethodPut:
		id := strings.TrimPrefix(strings.TrimSuffix(path, "/read"), notificationsPath+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.MarkAsRead(w, r, id)
	case strings.HasPrefix(path, notificationsPath+"/") && r.Method == http.MethodDelete:
		id := strings.TrimPrefix(path, notificationsPath+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.DeleteNotification(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListNotifications 查询通知列表
// 参数：unread=true 只返回未读；type=payment|inventory|appointment|system；limit
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusOK, FailWithCode(ResultInvalidQuery, err.Error()))
		return
	}

	items, err := h.notifier.Store().List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list notifications"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

// GetUnreadCount 未读数量
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifier.Store().UnreadCount(r.Context())
	if err != nil {
		h.logger.Error("Failed to count unread notifications", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to count unread notifications"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"count": count}))
}

// MarkAsRead 标记已读
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.notifier.Store().MarkAsRead(r.Context(), id); err != nil {
		h.writeStoreError(w, "mark notification as read", id, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}

// MarkAllAsRead 全部标记已读
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifier.Store().MarkAllAsRead(r.Context()); err != nil {
		h.logger.Error("Failed to mark all notifications as read", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to mark all notifications as read"))
		return
	}

	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// DeleteNotification 删除通知
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.notifier.Store().Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, "delete notification", id, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}

// Derive 立即执行一次推导
func (h *NotificationHandler) Derive(w http.ResponseWriter, r *http.Request) {
	result, err := h.notifier.RunOnce(r.Context(), h.now())
	if err != nil {
		h.logger.Error("Failed to derive notifications", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}

// ExportNotifications 导出通知为 Excel
func (h *NotificationHandler) ExportNotifications(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusOK, FailWithCode(ResultInvalidQuery, err.Error()))
		return
	}

	items, err := h.notifier.Store().List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list notifications for export", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list notifications"))
		return
	}

	data, err := GenerateNotificationExport(items)
	if err != nil {
		h.logger.Error("Failed to generate notification export", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("notifications_%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *NotificationHandler) writeStoreError(w http.ResponseWriter, action, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, FailWithCode(ResultNotFound, "notification not found"))
		return
	}
	h.logger.Error("Failed to "+action,
		zap.String("id", id),
		zap.Error(err),
	)
	writeJSON(w, http.StatusOK, Fail("failed to "+action))
}

func parseFilter(r *http.Request) (repository.NotificationFilter, error) {
	q := r.URL.Query()
	filter := repository.NotificationFilter{
		UnreadOnly: parseBool(q.Get("unread")),
		Limit:      parseInt(q.Get("limit"), 0),
	}

	if typ := strings.TrimSpace(q.Get("type")); typ != "" {
		t := models.NotificationType(typ)
		switch t {
		case models.NotificationPayment, models.NotificationInventory, models.NotificationAppointment, models.NotificationSystem:
			filter.Type = &t
		default:
			return filter, fmt.Errorf("invalid notification type: %s", typ)
		}
	}
	return filter, nil
}
