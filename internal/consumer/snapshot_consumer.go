package consumer

import (
	"context"
	"fmt"
	"time"

	"mindspire-notifier/internal/config"
	"mindspire-notifier/internal/models"

	"go.uber.org/zap"
)

// Runner 对一次读取到的集合状态执行推导
type Runner interface {
	Process(ctx context.Context, state *CollectionState, now time.Time) error
}

// SnapshotConsumer 快照消费者（轮询 + 存储更新触发）
// 只有单个循环 goroutine 调用 Runner，同一时刻最多一次推导
type SnapshotConsumer struct {
	config  *config.Config
	cache   *CollectionCache
	logger  *zap.Logger
	now     func() time.Time
	trigger chan struct{}

	// 上一次成功推导时的状态
	hasRun          bool
	lastFingerprint uint64
	lastDay         string
}

// NewSnapshotConsumer 创建快照消费者
func NewSnapshotConsumer(
	cfg *config.Config,
	cache *CollectionCache,
	logger *zap.Logger,
) *SnapshotConsumer {
	return &SnapshotConsumer{
		config:  cfg,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
}

// Notify 请求尽快重新读取；已有未处理的请求时合并
func (c *SnapshotConsumer) Notify() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Start 启动消费者，阻塞直到 ctx 取消
func (c *SnapshotConsumer) Start(ctx context.Context, runner Runner) error {
	c.logger.Info("Snapshot consumer started",
		zap.Int("poll_interval", c.config.Notifier.PollInterval),
	)

	ticker := time.NewTicker(time.Duration(c.config.Notifier.PollInterval) * time.Second)
	defer ticker.Stop()

	// 立即执行一次
	if err := c.poll(ctx, runner); err != nil {
		c.logger.Error("Failed to derive notifications on startup",
			zap.Error(err),
		)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Snapshot consumer stopped")
			return nil
		case <-ticker.C:
			if err := c.poll(ctx, runner); err != nil {
				c.logger.Error("Failed to derive notifications",
					zap.Error(err),
				)
				// 继续执行，不中断
			}
		case <-c.trigger:
			if err := c.poll(ctx, runner); err != nil {
				c.logger.Error("Failed to derive notifications on update",
					zap.Error(err),
				)
			}
		}
	}
}

// poll 读取一次集合，需要时执行推导
func (c *SnapshotConsumer) poll(ctx context.Context, runner Runner) error {
	state, err := c.cache.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load collections: %w", err)
	}

	now := state.Settings.Local(c.now())
	if !c.shouldRun(state, now) {
		return nil
	}

	if err := runner.Process(ctx, state, now); err != nil {
		return fmt.Errorf("failed to process snapshot: %w", err)
	}

	c.hasRun = true
	c.lastFingerprint = state.Fingerprint
	c.lastDay = models.DayOf(now)
	return nil
}

// shouldRun 判断是否需要重新推导
// 数据变化、跨天（去重按天），或今天还有已排期预约（“即将开始”窗口随时间移动）
func (c *SnapshotConsumer) shouldRun(state *CollectionState, now time.Time) bool {
	if !c.hasRun {
		return true
	}
	if state.Fingerprint != c.lastFingerprint {
		return true
	}
	if models.DayOf(now) != c.lastDay {
		return true
	}
	return hasScheduledToday(state.Snapshot.Appointments, now)
}

func hasScheduledToday(appointments []models.Appointment, now time.Time) bool {
	today := models.DayOf(now)
	for _, appt := range appointments {
		if appt.Status == models.AppointmentScheduled && appt.Date == today {
			return true
		}
	}
	return false
}
