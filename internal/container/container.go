package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/dispatcher"
	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/service"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/engine"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/messaging"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/metrics"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/persistence/sqlite"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/tracing"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/worker"
	httpapi "github.com/ukoquique-proves/JavaFlow/internal/interfaces/http"
	"github.com/ukoquique-proves/JavaFlow/pkg/database"
	"github.com/ukoquique-proves/JavaFlow/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger
	kv     *utils.KVLogger

	// Infrastructure - Data
	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle
	cache        *CacheBundle

	// Infrastructure - External
	engines *EngineBundle
	cipher  port.SecretCipher
	senders []port.BotSender

	// Observability
	metrics         *metrics.Metrics
	shutdownTracing tracing.ShutdownFunc

	// Application
	dispatcher dispatcher.Dispatcher
	bus        *messaging.Bus
	services   *ServiceBundle

	// Workers and adapters
	workers *worker.Manager
	server  *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Workflows  port.WorkflowRepository
	Executions port.ExecutionRepository
	Users      port.UserRepository
	Bots       port.BotRepository
	Messages   port.MessageRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Workflows service.WorkflowService
	Users     service.UserService
	Bots      service.BotService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
		kv:     utils.NewKVLogger(logger),
	}, nil
}

// Start initializes all components and begins background processing.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. Cache, engine, cipher and bot senders
// 3. Metrics and tracing
// 4. Dispatcher, bus and application services
// 5. Workers
// 6. HTTP server (built, not listening; see Server)
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"database", c.initDatabase},
		{"infrastructure", c.initInfrastructure},
		{"observability", c.initObservability},
		{"services", c.initServices},
		{"workers", c.initWorkers},
		{"http server", c.initServer},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			c.teardown()
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Initialized " + step.name)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases whatever has been initialized so far
func (c *Container) teardown() []error {
	var errs []error
	record := func(what string, err error) {
		if err != nil {
			c.logger.Error("Failed to "+what, zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
		}
	}

	if c.cancel != nil {
		c.cancel()
	}

	if c.server != nil {
		record("stop http server", c.server.Stop())
	}
	if c.workers != nil {
		record("stop workers", c.workers.StopAll())
	}
	if c.dispatcher != nil {
		record("close dispatcher", c.dispatcher.Close())
	}
	if c.bus != nil {
		record("close event bus", c.bus.Close())
	}
	if c.shutdownTracing != nil {
		record("shutdown tracing", c.shutdownTracing(context.Background()))
	}
	if c.cache != nil && c.cache.Closer != nil {
		record("close cache", c.cache.Closer.Close())
	}
	if c.db != nil {
		record("close database", c.db.Close())
	}

	c.server, c.workers, c.bus, c.dispatcher = nil, nil, nil, nil
	c.shutdownTracing, c.cache, c.db = nil, nil, nil
	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}
	notInitialized := ComponentHealth{Healthy: false, Message: "not initialized"}

	if c.db != nil {
		if err := c.db.Ping(); err != nil {
			set("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	} else {
		set("database", notInitialized)
	}

	if c.workers != nil {
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		})
	} else {
		set("workers", notInitialized)
	}

	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", notInitialized)
	}

	if c.bus != nil {
		set("event_bus", ComponentHealth{Healthy: true})
	} else {
		set("event_bus", notInitialized)
	}

	return status
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.txManager, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initInfrastructure() error {
	cacheBundle, err := ProvideCache(&c.config.Cache, c.logger)
	if err != nil {
		return err
	}
	c.cache = cacheBundle

	engines, err := ProvideEngine(&c.config.Engine, c.logger)
	if err != nil {
		return err
	}
	c.engines = engines

	cipher, err := ProvideCipher(&c.config.Security)
	if err != nil {
		return err
	}
	c.cipher = cipher

	c.senders = ProvideBotSenders(&c.config.Bots, c.logger)
	return nil
}

func (c *Container) initObservability() error {
	c.metrics = ProvideMetrics(&c.config.Metrics)

	shutdown, err := tracing.Setup(c.ctx, tracing.Config{
		Enabled:     c.config.Tracing.Enabled,
		ServiceName: c.config.Tracing.ServiceName,
		Endpoint:    c.config.Tracing.Endpoint,
		Insecure:    c.config.Tracing.Insecure,
		SampleRatio: c.config.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	c.shutdownTracing = shutdown
	return nil
}

func (c *Container) initServices() error {
	c.dispatcher = dispatcher.NewDispatcher(dispatcher.WithLogger(c.kv))
	c.bus = messaging.NewGoChannelBus(c.logger)

	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.txManager,
		Engine:     c.engines.Engine,
		Cache:      c.cache.Cache,
		Cipher:     c.cipher,
		Senders:    c.senders,
		Metrics:    c.metricsRecorder(),
		Dispatcher: c.dispatcher,
		Logger:     c.kv,
	})
	if err != nil {
		return err
	}
	c.services = services

	if c.engines.Memory != nil {
		c.engines.Memory.SetListener(services.Workflows.HandleLifecycle)
	}

	ProvideEventBridge(c.bus, c.dispatcher, services.Bots)
	return c.bus.Start(c.ctx)
}

func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(&WorkerDeps{
		Executions: c.repositories.Executions,
		Metrics:    c.metricsRecorder(),
		WorkerCfg:  &c.config.Worker,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.workers = workers

	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	return nil
}

func (c *Container) initServer() error {
	deps := httpapi.Deps{
		Workflows: c.services.Workflows,
		Users:     c.services.Users,
		Bots:      c.services.Bots,
		Inbound:   c.bus,
		Health: func() (bool, interface{}) {
			h := c.Health()
			return h.Overall, h.Components
		},
		Logger: c.kv,
	}
	if c.metrics != nil {
		deps.Metrics = c.metrics.Handler()
	}

	c.server = httpapi.NewServer(httpapi.ServerConfig{
		Host:         c.config.Server.Host,
		Port:         c.config.Server.Port,
		ReadTimeout:  c.config.Server.ReadTimeout,
		WriteTimeout: c.config.Server.WriteTimeout,
		MetricsPath:  c.config.Metrics.Path,

		WebhookSecret: c.config.Bots.WebhookSecret,
	}, deps)
	return nil
}

// metricsRecorder returns the Prometheus recorder, or a no-op one when metrics are disabled
func (c *Container) metricsRecorder() port.MetricsRecorder {
	if c.metrics == nil {
		return port.NopMetrics{}
	}
	return c.metrics
}

// Getters for accessing container components

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Bus returns the watermill-backed event bus.
func (c *Container) Bus() *messaging.Bus {
	return c.bus
}

// MemoryEngine returns the in-process engine, or nil when a remote engine is configured.
func (c *Container) MemoryEngine() *engine.MemoryEngine {
	if c.engines == nil {
		return nil
	}
	return c.engines.Memory
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Server returns the HTTP server. Call Start on it to begin listening.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
