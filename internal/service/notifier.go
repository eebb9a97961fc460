package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"mindspire-notifier/common/database"
	"mindspire-notifier/common/mqtt"
	commonredis "mindspire-notifier/common/redis"
	"mindspire-notifier/internal/config"
	"mindspire-notifier/internal/consumer"
	"mindspire-notifier/internal/deriver"
	"mindspire-notifier/internal/dispatcher"
	"mindspire-notifier/internal/metrics"
	"mindspire-notifier/internal/models"
	"mindspire-notifier/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Dispatcher 新通知外发
type Dispatcher interface {
	Dispatch(ctx context.Context, settings models.Settings, notification models.Notification) error
}

// RunResult 一次推导的结果
type RunResult struct {
	Requested     int                   `json:"requested"`
	Created       int                   `json:"created"`
	Skipped       int                   `json:"skipped"`
	Failed        int                   `json:"failed"`
	Notifications []models.Notification `json:"notifications"`
}

// NotifierService 通知服务（整合各层）
type NotifierService struct {
	config      *config.Config
	db          *sql.DB // DB_ENABLED=false 时为 nil
	redisClient *redis.Client
	mqttClient  *mqtt.Client // MQTT_ENABLED=false 时为 nil
	logger      *zap.Logger

	// 各层组件
	cache            *consumer.CollectionCache
	snapshotConsumer *consumer.SnapshotConsumer
	updateListener   *consumer.UpdateListener
	deriver          *deriver.Deriver
	store            repository.NotificationStore
	dispatcher       Dispatcher

	// 同一时刻只允许一次推导（轮询与 HTTP 触发共用）
	mu sync.Mutex
}

// NewNotifierService 创建通知服务
func NewNotifierService(cfg *config.Config, logger *zap.Logger) (*NotifierService, error) {
	ctx := context.Background()

	// 1. 连接 Redis
	redisClient := commonredis.NewRedisClient(&cfg.Redis)
	if err := commonredis.Ping(ctx, redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 2. 创建通知存储（PostgreSQL 或内存）
	var db *sql.DB
	var store repository.NotificationStore
	if cfg.DBEnabled {
		var err error
		db, err = database.NewPostgresDB(&cfg.Database)
		if err != nil {
			redisClient.Close()
			return nil, err
		}
		pgStore := repository.NewPostgresNotificationStore(db, logger)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			db.Close()
			redisClient.Close()
			return nil, err
		}
		store = pgStore
	} else {
		logger.Warn("Database disabled, notifications are kept in memory")
		store = repository.NewMemoryNotificationStore()
	}

	// 3. 创建外发客户端
	webhook := dispatcher.NewWebhookDispatcher(cfg.Dispatcher.WebhookURL, cfg.Dispatcher.Timeout, logger)

	s := newNotifierService(cfg, redisClient, store, webhook, logger)
	s.db = db

	// 4. 连接 MQTT（可选）
	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.Stop()
			return nil, err
		}
		s.mqttClient = mqttClient
	}

	return s, nil
}

// newNotifierService 组装各层组件
func newNotifierService(
	cfg *config.Config,
	redisClient *redis.Client,
	store repository.NotificationStore,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *NotifierService {
	policy := deriver.Policy{
		DueSoonDays:        cfg.Notifier.Rules.DueSoonDays,
		StartingSoonWindow: time.Duration(cfg.Notifier.Rules.StartingSoonMinutes) * time.Minute,
	}

	cache := consumer.NewCollectionCache(cfg, redisClient, logger)
	snapshotConsumer := consumer.NewSnapshotConsumer(cfg, cache, logger)

	return &NotifierService{
		config:           cfg,
		redisClient:      redisClient,
		logger:           logger,
		cache:            cache,
		snapshotConsumer: snapshotConsumer,
		updateListener:   consumer.NewUpdateListener(snapshotConsumer, logger),
		deriver:          deriver.New(policy, logger),
		store:            store,
		dispatcher:       dispatcher,
	}
}

// Store 通知存储
func (s *NotifierService) Store() repository.NotificationStore {
	return s.store
}

// LoadSnapshot 读取当前集合快照
func (s *NotifierService) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	return s.cache.LoadSnapshot(ctx)
}

// Start 启动服务，阻塞直到 ctx 取消
func (s *NotifierService) Start(ctx context.Context) error {
	s.logger.Info("Starting notifier service",
		zap.Int("due_soon_days", s.deriver.Policy().DueSoonDays),
		zap.Duration("starting_soon_window", s.deriver.Policy().StartingSoonWindow),
	)

	// 订阅存储更新（可选）
	if s.mqttClient != nil {
		if err := s.mqttClient.Subscribe(s.config.Notifier.UpdateTopic, s.updateListener.HandleMessage); err != nil {
			return fmt.Errorf("failed to subscribe storage updates: %w", err)
		}
	}

	// 启动 SnapshotConsumer（轮询 + 触发）
	if err := s.snapshotConsumer.Start(ctx, s); err != nil {
		return fmt.Errorf("failed to start snapshot consumer: %w", err)
	}

	return nil
}

// Stop 停止服务
func (s *NotifierService) Stop() error {
	s.logger.Info("Stopping notifier service")

	if s.mqttClient != nil {
		if err := s.mqttClient.Unsubscribe(s.config.Notifier.UpdateTopic); err != nil {
			s.logger.Warn("Failed to unsubscribe update topic",
				zap.String("topic", s.config.Notifier.UpdateTopic),
				zap.Error(err),
			)
		}
		s.mqttClient.Disconnect()
	}

	// 关闭数据库连接
	if err := database.Close(s.db); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	// 关闭 Redis 连接
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// RunOnce 读取当前集合并执行一次推导
func (s *NotifierService) RunOnce(ctx context.Context, now time.Time) (*RunResult, error) {
	state, err := s.cache.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	return s.run(ctx, state, now)
}

// Process 实现 consumer.Runner
func (s *NotifierService) Process(ctx context.Context, state *consumer.CollectionState, now time.Time) error {
	_, err := s.run(ctx, state, now)
	return err
}

// run 推导、写入存储、发布并外发新通知
func (s *NotifierService) run(ctx context.Context, state *consumer.CollectionState, now time.Time) (result *RunResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RecordDeriveRun(time.Since(start), err)
	}()

	// 日期按诊所时区计算
	now = state.Settings.Local(now)

	// 1. 推导
	requests := s.deriver.Derive(state.Snapshot, state.Settings.Notifications, now)
	result = &RunResult{
		Requested:     len(requests),
		Notifications: make([]models.Notification, 0),
	}

	// 2. 写入存储（同一天重复的跳过）
	for _, req := range requests {
		created, err := s.store.AddIfNotExists(ctx, req, now)
		if err != nil {
			s.logger.Error("Failed to store notification",
				zap.String("type", string(req.Type)),
				zap.String("title", req.Title),
				zap.Error(err),
			)
			result.Failed++
			continue // 继续处理，不中断
		}
		if created == nil {
			result.Skipped++
			metrics.NotificationsSkipped.WithLabelValues(string(req.Type)).Inc()
			continue
		}

		result.Created++
		result.Notifications = append(result.Notifications, *created)
		metrics.NotificationsCreated.WithLabelValues(string(req.Type)).Inc()

		// 3. 发布与外发
		s.publish(ctx, *created)
		if err := s.dispatcher.Dispatch(ctx, state.Settings, *created); err != nil {
			s.logger.Warn("Failed to dispatch notification",
				zap.String("notification_id", created.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Derivation finished",
		zap.Int("requested", result.Requested),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	if result.Failed > 0 {
		return result, fmt.Errorf("failed to store %d of %d notifications", result.Failed, result.Requested)
	}
	return result, nil
}

// publish 发布新通知到 Redis Stream，失败只记录日志
func (s *NotifierService) publish(ctx context.Context, n models.Notification) {
	_, err := commonredis.PublishToStream(ctx, s.redisClient, s.config.Notifier.Stream.Name, s.config.Notifier.Stream.MaxLen, map[string]interface{}{
		"id":         n.ID,
		"type":       string(n.Type),
		"title":      n.Title,
		"message":    n.Message,
		"priority":   string(n.Priority),
		"created_at": n.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn("Failed to publish notification",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
	}
}
