// Package worker runs the background jobs that observe executions outside the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker defines the interface for background workers
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// Manager starts workers in registration order and stops them in reverse
type Manager struct {
	mu      sync.RWMutex
	workers []Worker
	started []Worker
	running bool
	cancel  context.CancelFunc
	logger  *zap.Logger
}

// NewManager creates a new worker manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Register adds a worker to be managed
func (m *Manager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Info("Worker registered",
		zap.String("worker_name", w.Name()),
		zap.Int("total_workers", len(m.workers)))
}

// StartAll starts every registered worker. Workers that fail to start are
// reported in the returned error; the others keep running.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("workers already running")
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.started = m.started[:0]

	var errs []error
	for _, w := range m.workers {
		if err := w.Start(ctx); err != nil {
			m.logger.Error("Failed to start worker", zap.String("worker_name", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("start %s: %w", w.Name(), err))
			continue
		}
		m.started = append(m.started, w)
		m.logger.Info("Worker started", zap.String("worker_name", w.Name()))
	}

	return errors.Join(errs...)
}

// StopAll stops the started workers in reverse order
func (m *Manager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	if m.cancel != nil {
		m.cancel()
	}

	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		w := m.started[i]
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker", zap.String("worker_name", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", w.Name(), err))
			continue
		}
		m.logger.Info("Worker stopped", zap.String("worker_name", w.Name()))
	}
	m.started = nil

	return errors.Join(errs...)
}

// Count returns the number of registered workers
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// IsRunning returns whether workers are running
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
