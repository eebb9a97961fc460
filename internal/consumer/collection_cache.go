package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"mindspire-notifier/internal/config"
	"mindspire-notifier/internal/models"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CollectionState 一次读取得到的集合快照、设置以及原始数据指纹
type CollectionState struct {
	Snapshot    models.Snapshot
	Settings    models.Settings
	Fingerprint uint64
}

// CollectionCache 读取面板写入 Redis 的集合（每个集合一个 JSON 数组键）
type CollectionCache struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCollectionCache 创建集合缓存读取器
func NewCollectionCache(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CollectionCache {
	return &CollectionCache{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Load 读取全部集合和设置
// 键不存在视为空集合（设置键不存在使用默认设置）；数组本身无法解析时返回错误
func (c *CollectionCache) Load(ctx context.Context) (*CollectionState, error) {
	keys := c.config.WatchedKeys()
	raw, err := c.readRaw(ctx, keys)
	if err != nil {
		return nil, err
	}

	state := &CollectionState{
		Fingerprint: Fingerprint(keys, raw),
	}
	cache := c.config.Notifier.Cache

	if state.Snapshot.Appointments, err = decodeCollection[models.Appointment](c.logger, cache.AppointmentsKey, raw[cache.AppointmentsKey]); err != nil {
		return nil, err
	}
	// 账单金额会写入消息，类型错误时整条账单不参与规则
	if state.Snapshot.Invoices, err = decodeCollection[models.Invoice](c.logger, cache.InvoicesKey, raw[cache.InvoicesKey], "total"); err != nil {
		return nil, err
	}
	if state.Snapshot.Inventory, err = decodeCollection[models.InventoryItem](c.logger, cache.InventoryKey, raw[cache.InventoryKey]); err != nil {
		return nil, err
	}
	if state.Settings, err = decodeSettings(c.logger, raw[cache.SettingsKey]); err != nil {
		return nil, err
	}

	return state, nil
}

// LoadSnapshot 只读取三个集合
func (c *CollectionCache) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	state, err := c.Load(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	return state.Snapshot, nil
}

// LoadSettings 读取设置，缺失的字段使用默认值
func (c *CollectionCache) LoadSettings(ctx context.Context) (models.Settings, error) {
	val, err := c.redisClient.Get(ctx, c.config.Notifier.Cache.SettingsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return decodeSettings(c.logger, &val)
}

// readRaw 一次 MGET 读取所有键，返回存在的键的原始值
func (c *CollectionCache) readRaw(ctx context.Context, keys []string) (map[string]*string, error) {
	vals, err := c.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get collections: %w", err)
	}

	raw := make(map[string]*string, len(keys))
	for i, key := range keys {
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		s, ok := vals[i].(string)
		if !ok {
			continue
		}
		raw[key] = &s
	}
	return raw, nil
}

// Fingerprint 计算原始数据指纹（键顺序固定），用于判断数据是否变化
func Fingerprint(keys []string, raw map[string]*string) uint64 {
	d := xxhash.New()
	for _, key := range keys {
		_, _ = d.WriteString(key)
		if v, ok := raw[key]; ok && v != nil {
			_, _ = d.WriteString("=")
			_, _ = d.WriteString(*v)
		}
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// decodeCollection 解码集合数组
// 逐字段解码：字段类型错误只清空该字段；required 中的字段解码失败或元素不是对象时跳过整条记录
func decodeCollection[T any](logger *zap.Logger, key string, raw *string, required ...string) ([]T, error) {
	if raw == nil {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &elems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	items := make([]T, 0, len(elems))
	for i, elem := range elems {
		var item T
		failed, err := decodeFields(elem, &item)
		if err == nil {
			if field, ok := firstRequired(failed, required); ok {
				err = fmt.Errorf("invalid required field %s", field)
			}
		}
		if err != nil {
			logger.Debug("Skipping malformed record",
				zap.String("key", key),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		if len(failed) > 0 {
			logger.Debug("Ignoring malformed fields",
				zap.String("key", key),
				zap.Int("index", i),
				zap.Strings("fields", failed),
			)
		}
		items = append(items, item)
	}
	return items, nil
}

// decodeSettings 在默认设置上逐字段合并存储的设置
// 顶层不是 JSON 对象时返回错误；单个字段或分组类型错误时保留默认值
func decodeSettings(logger *zap.Logger, raw *string) (models.Settings, error) {
	settings := models.DefaultSettings()
	if raw == nil {
		return settings, nil
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &groups); err != nil {
		return models.Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	targets := map[string]any{
		"clinic":        &settings.Clinic,
		"notifications": &settings.Notifications,
		"schedule":      &settings.Schedule,
	}
	for name, target := range targets {
		group, ok := groups[name]
		if !ok {
			continue
		}
		failed, err := decodeFields(group, target)
		if err != nil {
			logger.Debug("Ignoring malformed settings group",
				zap.String("group", name),
				zap.Error(err),
			)
			continue
		}
		if len(failed) > 0 {
			logger.Debug("Ignoring malformed settings fields",
				zap.String("group", name),
				zap.Strings("fields", failed),
			)
		}
	}
	return settings, nil
}

// decodeFields 把 JSON 对象逐个字段解码到 target，返回解码失败的字段名
// target 中未出现在对象里的字段保持原值
func decodeFields(data json.RawMessage, target any) ([]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("record is null")
	}

	var failed []string
	for name, value := range fields {
		single, err := json.Marshal(map[string]json.RawMessage{name: value})
		if err != nil {
			failed = append(failed, name)
			continue
		}
		if err := json.Unmarshal(single, target); err != nil {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed, nil
}

func firstRequired(failed, required []string) (string, bool) {
	for _, f := range failed {
		for _, r := range required {
			if strings.EqualFold(f, r) {
				return f, true
			}
		}
	}
	return "", false
}
