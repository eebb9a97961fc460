package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindspire-notifier/internal/models"

	"go.uber.org/zap"
)

// notificationsSchema notifications 表结构
// created_day 由应用层按 now 所在时区计算，唯一索引保证同一天签名不重复
const notificationsSchema = `
	CREATE TABLE IF NOT EXISTS notifications (
		id             TEXT PRIMARY KEY,
		type           TEXT NOT NULL,
		title          TEXT NOT NULL,
		message        TEXT NOT NULL,
		priority       TEXT NOT NULL,
		is_read        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL,
		created_day    DATE NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS ux_notifications_dedup
		ON notifications (type, title, message, created_day);
	CREATE INDEX IF NOT EXISTS idx_notifications_created_at
		ON notifications (created_at DESC);
`

// PostgresNotificationStore 基于 PostgreSQL 的通知存储
type PostgresNotificationStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresNotificationStore 创建通知存储
func NewPostgresNotificationStore(db *sql.DB, logger *zap.Logger) *PostgresNotificationStore {
	return &PostgresNotificationStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema 创建表和索引（幂等）
func (r *PostgresNotificationStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, notificationsSchema); err != nil {
		return fmt.Errorf("failed to ensure notifications schema: %w", err)
	}
	return nil
}

// AddIfNotExists 插入通知，同一天签名冲突时返回 nil
func (r *PostgresNotificationStore) AddIfNotExists(ctx context.Context, req models.NotificationRequest, now time.Time) (*models.Notification, error) {
	n := newNotification(req, now)

	query := `
		INSERT INTO notifications (
			id,
			type,
			title,
			message,
			priority,
			is_read,
			created_at,
			created_day
		) VALUES (
			$1, $2, $3, $4, $5, FALSE, $6, $7
		)
		ON CONFLICT (type, title, message, created_day) DO NOTHING
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		n.ID,
		string(n.Type),
		n.Title,
		n.Message,
		string(n.Priority),
		n.CreatedAt,
		models.DayOf(now),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 冲突：当天已存在
			return nil, nil
		}
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	return &n, nil
}

// List 列出通知（最新在前）
func (r *PostgresNotificationStore) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	where := []string{}
	args := []interface{}{}
	argN := 1

	if filter.UnreadOnly {
		where = append(where, "is_read = FALSE")
	}
	if filter.Type != nil {
		where = append(where, fmt.Sprintf("type = $%d", argN))
		args = append(args, string(*filter.Type))
		argN++
	}

	query := `
		SELECT
			id,
			type,
			title,
			message,
			priority,
			is_read,
			created_at
		FROM notifications
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argN)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var typ, priority string
		if err := rows.Scan(
			&n.ID,
			&typ,
			&n.Title,
			&n.Message,
			&priority,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		n.Priority = models.Priority(priority)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return out, nil
}

// UnreadCount 未读数量
func (r *PostgresNotificationStore) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead 标记单条已读（只会 false → true）
func (r *PostgresNotificationStore) MarkAsRead(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}

	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return requireAffected(result, id)
}

// MarkAllAsRead 全部标记已读
func (r *PostgresNotificationStore) MarkAllAsRead(ctx context.Context) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE`)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil {
		r.logger.Debug("Marked notifications as read",
			zap.Int64("count", affected),
		)
	}
	return nil
}

// Delete 删除通知
func (r *PostgresNotificationStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return requireAffected(result, id)
}

// requireAffected 影响行数为 0 时返回 ErrNotFound
func requireAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}
	return nil
}
