// Package container provides dependency injection and lifecycle management
// for the JavaFlow orchestration service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database DatabaseConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Security SecurityConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Server   ServerConfig
	Worker   WorkerConfig
	Bots     BotsConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration

	// AutoMigrate applies the embedded schema on start
	AutoMigrate bool
}

// CacheConfig selects the query cache.
type CacheConfig struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
}

// EngineConfig selects the process engine.
type EngineConfig struct {
	Driver   string
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// SecurityConfig holds the bot token encryption key.
type SecurityConfig struct {
	EncryptionKey string
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WorkerConfig holds background job settings.
type WorkerConfig struct {
	LongRunningSchedule  string
	LongRunningThreshold time.Duration
}

// BotsConfig holds chat platform endpoints.
type BotsConfig struct {
	TelegramAPIURL string
	SendTimeout    time.Duration
	WebhookSecret  string
}

const (
	CacheDriverMemory  = "memory"
	CacheDriverRedis   = "redis"
	EngineDriverMemory = "memory"
	EngineDriverREST   = "rest"
)

// Validate checks the settings the container cannot start without.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	switch c.Cache.Driver {
	case CacheDriverMemory, "":
	case CacheDriverRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address is required")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}

	switch c.Engine.Driver {
	case EngineDriverMemory, "":
	case EngineDriverREST:
		if c.Engine.BaseURL == "" {
			return fmt.Errorf("engine base URL is required")
		}
	default:
		return fmt.Errorf("unknown engine driver %q", c.Engine.Driver)
	}

	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}

	if c.Worker.LongRunningThreshold <= 0 {
		return fmt.Errorf("long-running threshold must be positive")
	}

	return nil
}
