package repository

import (
	"context"
	"sync"
	"time"

	"mindspire-notifier/internal/models"
)

// MemoryNotificationStore 内存通知存储（数据库未启用时使用）
// 记录按创建时间倒序保存，去重通过 DedupKey 索引完成
type MemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications []models.Notification
	index         map[models.DedupKey]string // dedup key -> notification id
}

// NewMemoryNotificationStore 创建内存通知存储
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{
		index: make(map[models.DedupKey]string),
	}
}

// AddIfNotExists 当天不存在相同签名时新增
func (s *MemoryNotificationStore) AddIfNotExists(_ context.Context, req models.NotificationRequest, now time.Time) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.NewDedupKey(req, now)
	if _, ok := s.index[key]; ok {
		return nil, nil
	}

	n := newNotification(req, now)
	// 新记录放在最前面
	s.notifications = append([]models.Notification{n}, s.notifications...)
	s.index[key] = n.ID

	created := n
	return &created, nil
}

// List 列出通知（最新在前）
func (s *MemoryNotificationStore) List(_ context.Context, filter NotificationFilter) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		out = append(out, n)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// UnreadCount 未读数量
func (s *MemoryNotificationStore) UnreadCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

// MarkAsRead 标记单条已读
func (s *MemoryNotificationStore) MarkAsRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

// MarkAllAsRead 全部标记已读
func (s *MemoryNotificationStore) MarkAllAsRead(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		s.notifications[i].IsRead = true
	}
	return nil
}

// Delete 删除通知
// 删除后当天同签名的通知可以再次生成
func (s *MemoryNotificationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID != id {
			continue
		}
		s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
		if s.index[n.Key()] == id {
			delete(s.index, n.Key())
		}
		return nil
	}
	return ErrNotFound
}
