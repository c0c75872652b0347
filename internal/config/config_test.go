package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 32 zero bytes
const testKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/flows.db
cache:
  driver: redis
  redis_addr: redis:6379
security:
  encryption_key: `+testKey+`
worker:
  long_running_threshold: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/tmp/flows.db", cfg.Database.Path)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "javaflow:", cfg.Cache.Prefix)
	assert.Equal(t, "memory", cfg.Engine.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Worker.LongRunningThreshold)
	assert.Equal(t, "@every 5m", cfg.Worker.LongRunningSchedule)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
security:
  encryption_key: `+testKey+`
`)
	t.Setenv("JAVAFLOW_SERVER_PORT", "7070")
	t.Setenv("JAVAFLOW_ENGINE_DRIVER", "rest")
	t.Setenv("JAVAFLOW_ENGINE_BASE_URL", "http://flowable:8080/service")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "rest", cfg.Engine.Driver)
	assert.Equal(t, "http://flowable:8080/service", cfg.Engine.BaseURL)
}

func TestLoad_WithoutFile(t *testing.T) {
	t.Setenv("JAVAFLOW_SECURITY_ENCRYPTION_KEY", testKey)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/javaflow.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "data/javaflow.db"},
		Cache:    CacheConfig{Driver: "memory"},
		Engine:   EngineConfig{Driver: "memory"},
		Security: SecurityConfig{EncryptionKey: testKey},
		Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
		Tracing:  TracingConfig{SampleRatio: 1},
		Worker:   WorkerConfig{LongRunningSchedule: "*/5 * * * *", LongRunningThreshold: time.Hour},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"redis without address", func(c *Config) { c.Cache = CacheConfig{Driver: "redis"} }, "cache.redis_addr"},
		{"unknown engine driver", func(c *Config) { c.Engine.Driver = "camunda" }, "engine.driver"},
		{"rest without base url", func(c *Config) { c.Engine = EngineConfig{Driver: "rest"} }, "engine.base_url"},
		{"missing key", func(c *Config) { c.Security.EncryptionKey = "" }, "encryption_key is required"},
		{"key not base64", func(c *Config) { c.Security.EncryptionKey = "not base64!" }, "must be base64"},
		{"key too short", func(c *Config) { c.Security.EncryptionKey = "c2hvcnQ=" }, "32 bytes"},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{"sample ratio above one", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, "sample_ratio"},
		{"bad cron", func(c *Config) { c.Worker.LongRunningSchedule = "every minute" }, "long_running_schedule"},
		{"zero threshold", func(c *Config) { c.Worker.LongRunningThreshold = 0 }, "long_running_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ToContainerConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Cache = CacheConfig{Driver: "redis", RedisAddr: "redis:6379", RedisDB: 2, Prefix: "jf:"}
	cfg.Bots = BotsConfig{TelegramAPIURL: "https://api.telegram.org", SendTimeout: 5 * time.Second}

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())

	assert.Equal(t, "redis:6379", cc.Cache.RedisAddr)
	assert.Equal(t, 2, cc.Cache.RedisDB)
	assert.Equal(t, "jf:", cc.Cache.Prefix)
	assert.Equal(t, testKey, cc.Security.EncryptionKey)
	assert.Equal(t, "*/5 * * * *", cc.Worker.LongRunningSchedule)
	assert.Equal(t, 5*time.Second, cc.Bots.SendTimeout)
	assert.Equal(t, "/metrics", cc.Metrics.Path)
}
