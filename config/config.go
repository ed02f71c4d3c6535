package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Drying   DryingConfig   `mapstructure:"drying"`
	Report   ReportConfig   `mapstructure:"report"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int   `mapstructure:"port"`
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	RateLimit    int   `mapstructure:"rate_limit"` // 每分钟每个客户端的请求上限，0 表示不限
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"` // 同时作为报表按月分桶的时区
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// Location 解析配置的时区
func (c *DatabaseConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// RedisConfig Redis 配置（用于清扫锁与限流，可选）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 聊天前端服务令牌配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DryingConfig 烘干机池配置
type DryingConfig struct {
	Units         []int         `mapstructure:"units"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxHours      float64       `mapstructure:"max_hours"` // 0 表示不设上限
}

// ReportConfig 报表配置
type ReportConfig struct {
	// PartnerAttribution 为 true 时搭档在其个人统计中累计 partner_time
	PartnerAttribution bool `mapstructure:"partner_attribution"`
}

// NotifyConfig 外发通知配置
type NotifyConfig struct {
	Driver   string        `mapstructure:"driver"`    // log | webhook | mqtt
	ChatID   int64         `mapstructure:"chat_id"`   // 工作群
	AdminIDs []int64       `mapstructure:"admin_ids"` // 新用户审核通知对象
	Webhook  WebhookConfig `mapstructure:"webhook"`
	MQTT     MQTTConfig    `mapstructure:"mqtt"`
}

// WebhookConfig 聊天前端回调地址
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

// MQTTConfig MQTT 通知配置
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("server.rate_limit", 120)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "dryshift")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Europe/Kyiv")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("auth.issuer", "dryshift")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("drying.units", []int{1, 2, 3})
	v.SetDefault("drying.sweep_interval", "60s")
	v.SetDefault("drying.max_hours", 72)

	v.SetDefault("report.partner_attribution", false)

	v.SetDefault("notify.driver", "log")
	v.SetDefault("notify.chat_id", 0)
	v.SetDefault("notify.webhook.timeout", "10s")
	v.SetDefault("notify.mqtt.client_id", "dryshift")
	v.SetDefault("notify.mqtt.topic", "dryshift/notifications")
	v.SetDefault("notify.mqtt.qos", 1)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("DRYSHIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if len(c.Drying.Units) == 0 {
		return fmt.Errorf("配置校验失败: drying.units 不能为空")
	}
	seen := make(map[int]bool, len(c.Drying.Units))
	for _, id := range c.Drying.Units {
		if id <= 0 {
			return fmt.Errorf("配置校验失败: drying.units 编号必须为正整数，实际=%d", id)
		}
		if seen[id] {
			return fmt.Errorf("配置校验失败: drying.units 编号重复: %d", id)
		}
		seen[id] = true
	}
	if c.Drying.SweepInterval <= 0 {
		return fmt.Errorf("配置校验失败: drying.sweep_interval 必须大于 0")
	}
	if c.Drying.MaxHours < 0 {
		return fmt.Errorf("配置校验失败: drying.max_hours 不能为负数")
	}
	if _, err := c.Database.Location(); err != nil {
		return fmt.Errorf("配置校验失败: db.timezone 无效: %w", err)
	}

	switch c.Notify.Driver {
	case "", "log":
	case "webhook":
		if c.Notify.Webhook.URL == "" {
			return fmt.Errorf("配置校验失败: notify.webhook.url 不能为空")
		}
	case "mqtt":
		if c.Notify.MQTT.Broker == "" {
			return fmt.Errorf("配置校验失败: notify.mqtt.broker 不能为空")
		}
		if c.Notify.MQTT.QoS > 2 {
			return fmt.Errorf("配置校验失败: notify.mqtt.qos 只能是 0/1/2")
		}
	default:
		return fmt.Errorf("配置校验失败: 未知的 notify.driver %q", c.Notify.Driver)
	}
	return nil
}
