package config

import (
	"github.com/ukoquique-proves/JavaFlow/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Cache: container.CacheConfig{
			Driver:        c.Cache.Driver,
			RedisAddr:     c.Cache.RedisAddr,
			RedisPassword: c.Cache.RedisPassword,
			RedisDB:       c.Cache.RedisDB,
			Prefix:        c.Cache.Prefix,
		},
		Engine: container.EngineConfig{
			Driver:   c.Engine.Driver,
			BaseURL:  c.Engine.BaseURL,
			Username: c.Engine.Username,
			Password: c.Engine.Password,
			Timeout:  c.Engine.Timeout,
		},
		Security: container.SecurityConfig{
			EncryptionKey: c.Security.EncryptionKey,
		},
		Metrics: container.MetricsConfig{
			Enabled: c.Metrics.Enabled,
			Path:    c.Metrics.Path,
		},
		Tracing: container.TracingConfig{
			Enabled:     c.Tracing.Enabled,
			ServiceName: c.Tracing.ServiceName,
			Endpoint:    c.Tracing.Endpoint,
			Insecure:    c.Tracing.Insecure,
			SampleRatio: c.Tracing.SampleRatio,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Worker: container.WorkerConfig{
			LongRunningSchedule:  c.Worker.LongRunningSchedule,
			LongRunningThreshold: c.Worker.LongRunningThreshold,
		},
		Bots: container.BotsConfig{
			TelegramAPIURL: c.Bots.TelegramAPIURL,
			SendTimeout:    c.Bots.SendTimeout,
			WebhookSecret:  c.Bots.WebhookSecret,
		},
	}
}
