package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindspire-notifier/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("notification not found")

// NotificationFilter 列表过滤条件
type NotificationFilter struct {
	UnreadOnly bool
	Type       *models.NotificationType
	Limit      int // <= 0 表示不限制
}

// NotificationStore 通知存储
// AddIfNotExists 负责同一天 (type, title, message) 的去重以及 id / createdAt 的分配
type NotificationStore interface {
	AddIfNotExists(ctx context.Context, req models.NotificationRequest, now time.Time) (*models.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// newNotificationID 生成通知ID
func newNotificationID() string {
	return fmt.Sprintf("notification_%s", uuid.New().String())
}

// newNotification 由请求构建新记录
func newNotification(req models.NotificationRequest, now time.Time) models.Notification {
	return models.Notification{
		ID:        newNotificationID(),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Priority:  req.Priority,
		IsRead:    false,
		CreatedAt: now,
	}
}
