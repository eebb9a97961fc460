package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 连接配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// GetDSN lib/pq 连接串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LoadFromEnv 用 <prefix>_HOST/_PORT/_USER/_PASSWORD/_NAME/_SSLMODE 覆盖已有值
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	overrideString(prefix+"_HOST", &c.Host)
	overrideInt(prefix+"_PORT", &c.Port)
	overrideString(prefix+"_USER", &c.User)
	overrideString(prefix+"_PASSWORD", &c.Password)
	overrideString(prefix+"_NAME", &c.Database)
	overrideString(prefix+"_SSLMODE", &c.SSLMode)
	overrideInt(prefix+"_MAX_CONNS", &c.MaxConns)
	overrideInt(prefix+"_MAX_IDLE", &c.MaxIdle)
}

// LoadFromEnv 用 <prefix>_ADDR/_PASSWORD/_DB 覆盖已有值
func (c *RedisConfig) LoadFromEnv(prefix string) {
	overrideString(prefix+"_ADDR", &c.Addr)
	overrideString(prefix+"_PASSWORD", &c.Password)
	overrideInt(prefix+"_DB", &c.DB)
}

// LoadFromEnv 用 <prefix>_BROKER/_CLIENT_ID/_USERNAME/_PASSWORD/_QOS 覆盖已有值
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	overrideString(prefix+"_BROKER", &c.Broker)
	overrideString(prefix+"_CLIENT_ID", &c.ClientID)
	overrideString(prefix+"_USERNAME", &c.Username)
	overrideString(prefix+"_PASSWORD", &c.Password)

	var qos int
	if overrideInt(prefix+"_QOS", &qos) && qos >= 0 && qos <= 2 {
		c.QoS = byte(qos)
	}
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// overrideInt 只有能解析为整数时才覆盖
func overrideInt(key string, dst *int) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	*dst = n
	return true
}
