package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

// LongRunningConfig configures the long-running execution sweep
type LongRunningConfig struct {
	// Schedule is a standard five-field cron expression or a descriptor such as "@every 5m"
	Schedule  string
	Threshold time.Duration
}

// LongRunningSweeper periodically reports RUNNING executions older than the threshold.
// It only observes; no execution changes state.
type LongRunningSweeper struct {
	executions port.ExecutionRepository
	metrics    port.MetricsRecorder
	cfg        LongRunningConfig
	logger     *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
	ctx  context.Context
}

// NewLongRunningSweeper creates the sweep worker
func NewLongRunningSweeper(executions port.ExecutionRepository, metrics port.MetricsRecorder, cfg LongRunningConfig, logger *zap.Logger) *LongRunningSweeper {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &LongRunningSweeper{
		executions: executions,
		metrics:    metrics,
		cfg:        cfg,
		logger:     logger.With(zap.String("worker", "long_running_sweep")),
	}
}

func (s *LongRunningSweeper) Name() string {
	return "long_running_sweep"
}

func (s *LongRunningSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("sweeper already started")
	}

	cronLog := cronLogger{s.logger.Sugar()}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	))
	if _, err := c.AddFunc(s.cfg.Schedule, s.run); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	s.ctx = ctx
	s.cron = c
	c.Start()

	s.logger.Info("Long-running sweep scheduled",
		zap.String("schedule", s.cfg.Schedule),
		zap.Duration("threshold", s.cfg.Threshold))
	return nil
}

// Stop waits for a sweep in progress to finish
func (s *LongRunningSweeper) Stop() error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	<-c.Stop().Done()
	return nil
}

func (s *LongRunningSweeper) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("Long-running sweep failed", zap.Error(err))
	}
}

// Sweep reports the executions that have been RUNNING longer than the threshold and returns them
func (s *LongRunningSweeper) Sweep(ctx context.Context) ([]*entity.WorkflowExecution, error) {
	running, err := s.executions.FindByStatus(ctx, entity.ExecutionStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("failed to load running executions: %w", err)
	}

	var slow []*entity.WorkflowExecution
	for _, e := range running {
		if !e.IsRunningLongerThan(s.cfg.Threshold) {
			continue
		}
		slow = append(slow, e)
		s.logger.Warn("Execution running longer than threshold",
			zap.Int64("execution_id", e.ID),
			zap.String("workflow", e.WorkflowName),
			zap.String("process_instance_id", e.ProcessInstanceID),
			zap.Duration("running_for", e.Duration()))
	}

	s.metrics.SetLongRunningExecutions(len(slow))
	return slow, nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
