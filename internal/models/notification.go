package models

import (
	"time"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotificationPayment     NotificationType = "payment"
	NotificationInventory   NotificationType = "inventory"
	NotificationAppointment NotificationType = "appointment"
	NotificationSystem      NotificationType = "system"
)

// Priority 通知优先级
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// NotificationRequest 规则产出的通知请求（尚未持久化）
type NotificationRequest struct {
	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Priority Priority         `json:"priority"`
}

// Signature 请求的去重签名（不含日期）
func (r NotificationRequest) Signature() string {
	return string(r.Type) + "\x00" + r.Title + "\x00" + r.Message
}

// Notification 通知记录（对应 notifications 表 / mindspire_notifications 集合）
type Notification struct {
	ID        string           `json:"id" db:"id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Priority  Priority         `json:"priority" db:"priority"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

// DedupKey 去重键：同一天内 (type, title, message) 相同视为重复
type DedupKey struct {
	Type    NotificationType
	Title   string
	Message string
	Day     string // YYYY-MM-DD
}

// DayOf 返回时间所在的日历日（按其自身时区）
func DayOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// NewDedupKey 由请求和创建时间构建去重键
func NewDedupKey(req NotificationRequest, createdAt time.Time) DedupKey {
	return DedupKey{
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Day:     DayOf(createdAt),
	}
}

// Key 返回通知记录自身的去重键
func (n Notification) Key() DedupKey {
	return DedupKey{
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
		Day:     DayOf(n.CreatedAt),
	}
}
