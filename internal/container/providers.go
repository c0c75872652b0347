package container

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/dispatcher"
	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/service"
	"github.com/ukoquique-proves/JavaFlow/internal/application/usecase"
	"github.com/ukoquique-proves/JavaFlow/internal/application/validation"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/bot"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/cache"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/engine"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/messaging"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/metrics"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/persistence/repository"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/persistence/sqlite"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/security"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/worker"
	"github.com/ukoquique-proves/JavaFlow/pkg/database"
	"github.com/ukoquique-proves/JavaFlow/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// EngineBundle holds the process engine. Memory is set only for the in-process driver.
type EngineBundle struct {
	Engine port.ProcessEngine
	Memory *engine.MemoryEngine
}

// CacheBundle holds the query cache and, for network backends, its closer.
type CacheBundle struct {
	Cache  port.Cache
	Closer io.Closer
}

// ProvideDatabase opens SQLite and, when enabled, applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := database.NewMigrator(db, logger).Run(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories over the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Workflows:  repository.NewWorkflowRepository(db, logger),
		Executions: repository.NewExecutionRepository(db, logger),
		Users:      repository.NewUserRepository(db, logger),
		Bots:       repository.NewBotRepository(db, logger),
		Messages:   repository.NewMessageRepository(db, logger),
	}, nil
}

// ProvideCache creates the configured query cache.
func ProvideCache(cfg *CacheConfig, logger *zap.Logger) (*CacheBundle, error) {
	switch cfg.Driver {
	case CacheDriverRedis:
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &CacheBundle{Cache: rc, Closer: rc}, nil
	case CacheDriverMemory, "":
		return &CacheBundle{Cache: cache.NewMemoryCache()}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// ProvideEngine creates the configured process engine.
func ProvideEngine(cfg *EngineConfig, logger *zap.Logger) (*EngineBundle, error) {
	switch cfg.Driver {
	case EngineDriverREST:
		return &EngineBundle{Engine: engine.NewRESTEngine(engine.RESTConfig{
			BaseURL:  cfg.BaseURL,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.Timeout,
		}, logger)}, nil
	case EngineDriverMemory, "":
		mem := engine.NewMemoryEngine(logger)
		return &EngineBundle{Engine: mem, Memory: mem}, nil
	default:
		return nil, fmt.Errorf("unknown engine driver %q", cfg.Driver)
	}
}

// ProvideMetrics registers the application instruments plus the Go and process collectors
// on a private registry. It returns nil when metrics are disabled.
func ProvideMetrics(cfg *MetricsConfig) *metrics.Metrics {
	if !cfg.Enabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.NewMetrics(reg)
}

// ProvideCipher creates the bot token cipher.
func ProvideCipher(cfg *SecurityConfig) (port.SecretCipher, error) {
	c, err := security.NewAESCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return c, nil
}

// ProvideBotSenders creates one outbound sender per supported platform.
func ProvideBotSenders(cfg *BotsConfig, logger *zap.Logger) []port.BotSender {
	client := &http.Client{Timeout: cfg.SendTimeout}
	return []port.BotSender{
		bot.NewTelegramSender(client, cfg.TelegramAPIURL, logger),
		bot.NewWhatsAppSender(logger),
	}
}

// ServiceDeps groups the collaborators of the application services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Engine     port.ProcessEngine
	Cache      port.Cache
	Cipher     port.SecretCipher
	Senders    []port.BotSender
	Metrics    port.MetricsRecorder
	Dispatcher dispatcher.Dispatcher
	Logger     *utils.KVLogger
}

// ProvideServices creates the user, workflow and bot services and registers
// the metrics subscriber on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}

	users := service.NewUserService(deps.Repos.Users, deps.Logger)

	workflows := service.NewWorkflowService(service.WorkflowServiceDeps{
		UseCases: usecase.Dependencies{
			Workflows:  deps.Repos.Workflows,
			Executions: deps.Repos.Executions,
			Users:      users,
			Engine:     deps.Engine,
			TxManager:  deps.TxManager,
			Publisher:  deps.Dispatcher,
			Logger:     deps.Logger,
		},
		Validation: validation.NewService(),
		Cache:      deps.Cache,
		Metrics:    deps.Metrics,
		Logger:     deps.Logger,
	})

	bots := service.NewBotService(service.BotServiceDeps{
		Bots:      deps.Repos.Bots,
		Messages:  deps.Repos.Messages,
		Workflows: workflows,
		Cipher:    deps.Cipher,
		Senders:   deps.Senders,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	})

	service.NewEventSubscriber(deps.Metrics, deps.Logger).Register(deps.Dispatcher)

	return &ServiceBundle{
		Workflows: workflows,
		Users:     users,
		Bots:      bots,
	}, nil
}

// forwardedEvents are mirrored from the dispatcher onto the bus as outbound notifications
var forwardedEvents = []event.Type{
	event.TypeWorkflowActivated,
	event.TypeWorkflowDeactivated,
	event.TypeWorkflowArchived,
	event.TypeWorkflowDeleted,
	event.TypeExecutionStatusChanged,
}

// ProvideEventBridge wires the bus: inbound bot messages go to the bot service and
// lifecycle events from the dispatcher are republished on their bus topics.
func ProvideEventBridge(bus *messaging.Bus, d dispatcher.Dispatcher, bots service.BotService) {
	bus.Handle(event.TypeBotMessageReceived, bots.HandleMessageReceived)

	for _, t := range forwardedEvents {
		d.Subscribe(t, "bus-forwarder", func(ctx context.Context, evt *event.Event) error {
			return bus.Publish(ctx, evt)
		})
	}
}

// WorkerDeps groups the collaborators of the background workers.
type WorkerDeps struct {
	Executions port.ExecutionRepository
	Metrics    port.MetricsRecorder
	WorkerCfg  *WorkerConfig
	Logger     *zap.Logger
}

// ProvideWorkers creates the worker manager with every background job registered.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil || deps.WorkerCfg == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}

	manager := worker.NewManager(deps.Logger)
	manager.Register(worker.NewLongRunningSweeper(deps.Executions, deps.Metrics, worker.LongRunningConfig{
		Schedule:  deps.WorkerCfg.LongRunningSchedule,
		Threshold: deps.WorkerCfg.LongRunningThreshold,
	}, deps.Logger))

	return manager, nil
}
