// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ukoquique-proves/JavaFlow/internal/application/service"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// InboundPublisher hands inbound bot messages to the event bus
type InboundPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
}

// HealthFunc reports overall health and per-component details
type HealthFunc func() (healthy bool, details interface{})

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string
	// WebhookSecret guards POST /bots/:id/webhook when set
	WebhookSecret string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MetricsPath:  "/metrics",
	}
}

// Deps holds the services exposed over HTTP. Inbound, Metrics and Health are optional.
type Deps struct {
	Workflows service.WorkflowService
	Users     service.UserService
	Bots      service.BotService
	Inbound   InboundPublisher
	Metrics   http.Handler
	Health    HealthFunc
	Logger    Logger
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Deps
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: deps.Logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.recoveryMiddleware())
	s.router.Use(s.loggingMiddleware())
}

// recoveryMiddleware turns panics into the opaque 500 problem
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.Error("Panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
		writeProblem(c, internalProblem(c))
		c.Abort()
	})
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps)

	s.router.GET("/health", h.HealthCheck)
	if s.deps.Metrics != nil {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(s.deps.Metrics))
	}

	api := s.router.Group("/api/v1")
	{
		workflows := api.Group("/workflows")
		workflows.POST("", h.CreateWorkflow)
		workflows.GET("", h.ListWorkflows)
		workflows.GET("/:id", h.GetWorkflow)
		workflows.DELETE("/:id", h.DeleteWorkflow)
		workflows.POST("/:id/activate", h.ActivateWorkflow)
		workflows.POST("/:id/deactivate", h.DeactivateWorkflow)
		workflows.POST("/:id/archive", h.ArchiveWorkflow)
		workflows.POST("/:id/execute", h.ExecuteWorkflow)
		workflows.GET("/:id/executions", h.ListWorkflowExecutions)

		executions := api.Group("/executions")
		executions.GET("", h.ListRecentExecutions)
		executions.GET("/stats", h.ExecutionStats)
		executions.GET("/by-instance/:instanceId", h.GetExecutionByInstance)
		executions.GET("/:id", h.GetExecution)
		executions.POST("/:id/cancel", h.CancelExecution)
		executions.POST("/:id/suspend", h.SuspendExecution)
		executions.POST("/:id/resume", h.ResumeExecution)

		api.POST("/engine/events", h.EngineEvent)

		users := api.Group("/users")
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/workflows", h.ListUserWorkflows)

		bots := api.Group("/bots")
		bots.POST("", h.CreateBot)
		bots.GET("", h.ListBots)
		bots.GET("/:id", h.GetBot)
		bots.DELETE("/:id", h.DeleteBot)
		bots.POST("/:id/activate", h.ActivateBot)
		bots.POST("/:id/deactivate", h.DeactivateBot)
		bots.GET("/:id/messages", h.ListBotMessages)
		bots.POST("/:id/webhook", s.webhookAuth(), h.BotWebhook)

		api.GET("/messages", h.ListChatMessages)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
