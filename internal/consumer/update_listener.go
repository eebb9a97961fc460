package consumer

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// StorageUpdate 面板发布的存储更新消息
type StorageUpdate struct {
	Key string `json:"key"`
}

// UpdateListener 处理存储更新消息，命中关注的键时唤醒消费者
type UpdateListener struct {
	consumer *SnapshotConsumer
	watched  map[string]struct{}
	logger   *zap.Logger
}

// NewUpdateListener 创建存储更新监听器
func NewUpdateListener(consumer *SnapshotConsumer, logger *zap.Logger) *UpdateListener {
	watched := make(map[string]struct{})
	for _, key := range consumer.config.WatchedKeys() {
		watched[key] = struct{}{}
	}
	return &UpdateListener{
		consumer: consumer,
		watched:  watched,
		logger:   logger,
	}
}

// HandleMessage 实现 mqtt.MessageHandler
func (l *UpdateListener) HandleMessage(topic string, payload []byte) error {
	var update StorageUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("failed to unmarshal storage update: %w", err)
	}

	if _, ok := l.watched[update.Key]; !ok {
		return nil
	}

	l.logger.Debug("Storage update received",
		zap.String("topic", topic),
		zap.String("key", update.Key),
	)
	l.consumer.Notify()
	return nil
}
