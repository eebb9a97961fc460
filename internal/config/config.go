package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mindspire-notifier/common/config"

	"gopkg.in/yaml.v3"
)

// Config 通知服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 通知服务特定配置
	Notifier struct {
		// Redis 集合键（与面板的存储键一致）
		Cache struct {
			AppointmentsKey string // 默认 "mindspire_appointments"
			InvoicesKey     string // 默认 "mindspire_invoices"
			InventoryKey    string // 默认 "mindspire_inventory"
			SettingsKey     string // 默认 "mindspire_settings"
		}

		// 轮询配置
		PollInterval int // 轮询间隔（秒），默认 5秒

		// 规则窗口
		Rules struct {
			DueSoonDays         int // 即将到期窗口（天），默认 3
			StartingSoonMinutes int // 即将开始窗口（分钟），默认 60
		}

		// 新通知发布到 Redis Stream
		Stream struct {
			Name   string // 默认 "mindspire:notifications"
			MaxLen int64  // 默认 10000
		}

		// 存储更新触发（MQTT）
		UpdateTopic string // 默认 "mindspire/storage-update"
	}

	DBEnabled   bool // 是否使用 PostgreSQL 存储通知（否则使用内存存储）
	MQTTEnabled bool // 是否订阅存储更新主题

	Dispatcher struct {
		WebhookURL string        // 为空时不外发
		Timeout    time.Duration // 默认 10 秒
	}

	HTTP struct {
		Addr string // 默认 ":8090"
	}

	Log struct {
		Level  string
		Format string
	}
}

// RulesFile 规则窗口 YAML 文件
type RulesFile struct {
	DueSoonDays         *int `yaml:"due_soon_days"`
	StartingSoonMinutes *int `yaml:"starting_soon_minutes"`
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 默认值，再由环境变量覆盖
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "mindspire",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")
	cfg.DBEnabled = getEnvBool("DB_ENABLED", false)

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "mindspire-notifier",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTTEnabled = getEnvBool("MQTT_ENABLED", false)

	// 通知服务配置
	cfg.Notifier.Cache.AppointmentsKey = getEnv("CACHE_APPOINTMENTS_KEY", "mindspire_appointments")
	cfg.Notifier.Cache.InvoicesKey = getEnv("CACHE_INVOICES_KEY", "mindspire_invoices")
	cfg.Notifier.Cache.InventoryKey = getEnv("CACHE_INVENTORY_KEY", "mindspire_inventory")
	cfg.Notifier.Cache.SettingsKey = getEnv("CACHE_SETTINGS_KEY", "mindspire_settings")

	cfg.Notifier.PollInterval = getEnvInt("POLL_INTERVAL", 5) // 5秒轮询一次

	cfg.Notifier.Rules.DueSoonDays = 3
	cfg.Notifier.Rules.StartingSoonMinutes = 60

	cfg.Notifier.Stream.Name = getEnv("NOTIFICATION_STREAM", "mindspire:notifications")
	cfg.Notifier.Stream.MaxLen = 10000

	cfg.Notifier.UpdateTopic = getEnv("MQTT_UPDATE_TOPIC", "mindspire/storage-update")

	cfg.Dispatcher.WebhookURL = getEnv("WEBHOOK_URL", "")
	cfg.Dispatcher.Timeout = 10 * time.Second

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8090")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 规则窗口文件（可选）
	if path := os.Getenv("RULES_CONFIG"); path != "" {
		if err := cfg.ApplyRulesFile(path); err != nil {
			return nil, err
		}
	}

	if cfg.Notifier.PollInterval <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %d", cfg.Notifier.PollInterval)
	}

	return cfg, nil
}

// ApplyRulesFile 读取 YAML 规则窗口文件，只覆盖文件中出现的字段
func (c *Config) ApplyRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules config: %w", err)
	}

	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("failed to parse rules config: %w", err)
	}

	if rules.DueSoonDays != nil {
		if *rules.DueSoonDays < 0 {
			return fmt.Errorf("invalid due_soon_days: %d", *rules.DueSoonDays)
		}
		c.Notifier.Rules.DueSoonDays = *rules.DueSoonDays
	}
	if rules.StartingSoonMinutes != nil {
		if *rules.StartingSoonMinutes < 0 {
			return fmt.Errorf("invalid starting_soon_minutes: %d", *rules.StartingSoonMinutes)
		}
		c.Notifier.Rules.StartingSoonMinutes = *rules.StartingSoonMinutes
	}

	return nil
}

// WatchedKeys 触发重新推导的存储键
func (c *Config) WatchedKeys() []string {
	return []string{
		c.Notifier.Cache.AppointmentsKey,
		c.Notifier.Cache.InvoicesKey,
		c.Notifier.Cache.InventoryKey,
		c.Notifier.Cache.SettingsKey,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
