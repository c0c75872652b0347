package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix namespaces environment overrides: server.port is read from JAVAFLOW_SERVER_PORT
const EnvPrefix = "JAVAFLOW"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Bots     BotsConfig     `mapstructure:"bots"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// CacheConfig selects the query cache backend
type CacheConfig struct {
	Driver        string `mapstructure:"driver"` // memory or redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"`
}

// EngineConfig selects the process engine
type EngineConfig struct {
	Driver   string        `mapstructure:"driver"` // memory or rest
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SecurityConfig holds the bot token encryption key
type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"` // base64, 32 bytes decoded
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig controls the OpenTelemetry tracer provider
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"` // OTLP/HTTP host:port
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// WorkerConfig holds background job configuration
type WorkerConfig struct {
	LongRunningSchedule  string        `mapstructure:"long_running_schedule"`
	LongRunningThreshold time.Duration `mapstructure:"long_running_threshold"`
}

// BotsConfig holds chat platform endpoints
type BotsConfig struct {
	TelegramAPIURL string        `mapstructure:"telegram_api_url"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configPath (optional), a .env file next to the process (optional) and JAVAFLOW_* variables.
// Environment values win over the file.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/javaflow.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.prefix", "javaflow:")

	v.SetDefault("engine.driver", "memory")
	v.SetDefault("engine.base_url", "http://localhost:8081/flowable-rest/service")
	v.SetDefault("engine.username", "")
	v.SetDefault("engine.password", "")
	v.SetDefault("engine.timeout", 30*time.Second)

	v.SetDefault("security.encryption_key", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "javaflow")
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("worker.long_running_schedule", "@every 5m")
	v.SetDefault("worker.long_running_threshold", time.Hour)

	v.SetDefault("bots.telegram_api_url", "https://api.telegram.org")
	v.SetDefault("bots.send_timeout", 10*time.Second)
	v.SetDefault("bots.webhook_secret", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be memory or redis, got %q", c.Cache.Driver)
	}

	switch c.Engine.Driver {
	case "memory":
	case "rest":
		if c.Engine.BaseURL == "" {
			return fmt.Errorf("engine.base_url is required for the rest driver")
		}
	default:
		return fmt.Errorf("engine.driver must be memory or rest, got %q", c.Engine.Driver)
	}

	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("security.encryption_key is required")
	}
	key, err := base64.StdEncoding.DecodeString(c.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("security.encryption_key must be base64: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("security.encryption_key must decode to 32 bytes, got %d", len(key))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}

	if _, err := cron.ParseStandard(c.Worker.LongRunningSchedule); err != nil {
		return fmt.Errorf("worker.long_running_schedule is invalid: %w", err)
	}
	if c.Worker.LongRunningThreshold <= 0 {
		return fmt.Errorf("worker.long_running_threshold must be positive")
	}

	return nil
}
