package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "mindspire", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.False(t, cfg.DBEnabled)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "mindspire/storage-update", cfg.Notifier.UpdateTopic)

	assert.Equal(t, "mindspire_appointments", cfg.Notifier.Cache.AppointmentsKey)
	assert.Equal(t, "mindspire_invoices", cfg.Notifier.Cache.InvoicesKey)
	assert.Equal(t, "mindspire_inventory", cfg.Notifier.Cache.InventoryKey)
	assert.Equal(t, "mindspire_settings", cfg.Notifier.Cache.SettingsKey)

	assert.Equal(t, 5, cfg.Notifier.PollInterval)
	assert.Equal(t, 3, cfg.Notifier.Rules.DueSoonDays)
	assert.Equal(t, 60, cfg.Notifier.Rules.StartingSoonMinutes)
	assert.Equal(t, "mindspire:notifications", cfg.Notifier.Stream.Name)
	assert.Equal(t, int64(10000), cfg.Notifier.Stream.MaxLen)

	assert.Equal(t, "", cfg.Dispatcher.WebhookURL)
	assert.Equal(t, 10*time.Second, cfg.Dispatcher.Timeout)
	assert.Equal(t, ":8090", cfg.HTTP.Addr)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_ENABLED", "true")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("REDIS_DB", "2")
	os.Setenv("MQTT_ENABLED", "yes")
	os.Setenv("POLL_INTERVAL", "30")
	os.Setenv("WEBHOOK_URL", "http://gateway/notify")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "text")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, 30, cfg.Notifier.PollInterval)
	assert.Equal(t, "http://gateway/notify", cfg.Dispatcher.WebhookURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	os.Clearenv()
	os.Setenv("POLL_INTERVAL", "0")
	defer os.Clearenv()

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RulesFile(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("due_soon_days: 5\n"), 0o644))
	os.Setenv("RULES_CONFIG", path)
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Notifier.Rules.DueSoonDays)
	// 文件中未出现的字段保持默认值
	assert.Equal(t, 60, cfg.Notifier.Rules.StartingSoonMinutes)
}

func TestApplyRulesFile_Errors(t *testing.T) {
	cfg := &Config{}
	dir := t.TempDir()

	err := cfg.ApplyRulesFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rules config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("due_soon_days: [1"), 0o644))
	err = cfg.ApplyRulesFile(bad)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rules config")

	negative := filepath.Join(dir, "negative.yaml")
	require.NoError(t, os.WriteFile(negative, []byte("starting_soon_minutes: -5\n"), 0o644))
	err = cfg.ApplyRulesFile(negative)
	assert.Error(t, err)
}

func TestWatchedKeys(t *testing.T) {
	os.Clearenv()
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"mindspire_appointments",
		"mindspire_invoices",
		"mindspire_inventory",
		"mindspire_settings",
	}, cfg.WatchedKeys())
}
