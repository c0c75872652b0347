// Package engine provides port.ProcessEngine adapters: an in-process engine for
// development and tests, and a client for a Flowable-compatible REST engine.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
)

// Instance is a process instance tracked by the in-memory engine
type Instance struct {
	ID         string
	ProcessKey string
	Variables  map[string]interface{}
	StartedAt  time.Time
}

// MemoryEngine records deployments and instances without executing the
// definition. Instances finish only when Complete or Fail is called.
type MemoryEngine struct {
	mu          sync.RWMutex
	deployments map[string]string // process key -> deployment id
	instances   map[string]*Instance
	listener    port.LifecycleListener
	logger      *zap.Logger
}

// NewMemoryEngine creates an empty engine
func NewMemoryEngine(logger *zap.Logger) *MemoryEngine {
	return &MemoryEngine{
		deployments: make(map[string]string),
		instances:   make(map[string]*Instance),
		logger:      logger.With(zap.String("component", "memory_engine")),
	}
}

// SetListener registers the callback fired when an instance ends
func (e *MemoryEngine) SetListener(listener port.LifecycleListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = listener
}

func (e *MemoryEngine) Deploy(ctx context.Context, name, resourceName, definition string) (string, error) {
	if name == "" || definition == "" {
		return "", fmt.Errorf("deployment %q has no definition", resourceName)
	}

	id := uuid.New().String()

	e.mu.Lock()
	e.deployments[name] = id
	e.mu.Unlock()

	e.logger.Info("Process deployed",
		zap.String("deployment_id", id),
		zap.String("name", name),
		zap.String("resource", resourceName))
	return id, nil
}

func (e *MemoryEngine) StartInstance(ctx context.Context, processKey string, variables map[string]interface{}) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.deployments[processKey]; !ok {
		return "", fmt.Errorf("no process definition deployed with key %q", processKey)
	}

	vars := make(map[string]interface{}, len(variables))
	for k, v := range variables {
		vars[k] = v
	}

	inst := &Instance{
		ID:         uuid.New().String(),
		ProcessKey: processKey,
		Variables:  vars,
		StartedAt:  time.Now(),
	}
	e.instances[inst.ID] = inst

	e.logger.Info("Process instance started",
		zap.String("instance_id", inst.ID),
		zap.String("process_key", processKey))
	return inst.ID, nil
}

func (e *MemoryEngine) DeleteInstance(ctx context.Context, instanceID, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.instances[instanceID]; !ok {
		return fmt.Errorf("process instance %s not found", instanceID)
	}
	delete(e.instances, instanceID)

	e.logger.Info("Process instance deleted",
		zap.String("instance_id", instanceID),
		zap.String("reason", reason))
	return nil
}

// Complete ends the instance successfully and notifies the listener
func (e *MemoryEngine) Complete(ctx context.Context, instanceID string) error {
	return e.finish(ctx, instanceID, port.LifecycleEnd, "")
}

// Fail ends the instance with an error and notifies the listener
func (e *MemoryEngine) Fail(ctx context.Context, instanceID, errorMessage string) error {
	return e.finish(ctx, instanceID, port.LifecycleError, errorMessage)
}

func (e *MemoryEngine) finish(ctx context.Context, instanceID string, lifecycle port.LifecycleEvent, msg string) error {
	e.mu.Lock()
	if _, ok := e.instances[instanceID]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("process instance %s not found", instanceID)
	}
	delete(e.instances, instanceID)
	listener := e.listener
	e.mu.Unlock()

	// listener runs outside the lock; it may call back into the engine
	if listener != nil {
		listener(ctx, instanceID, lifecycle, msg)
	}
	return nil
}

// Instance returns a copy of a running instance
func (e *MemoryEngine) Instance(instanceID string) (Instance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	inst, ok := e.instances[instanceID]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// IsDeployed reports whether a definition was deployed under the key
func (e *MemoryEngine) IsDeployed(processKey string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.deployments[processKey]
	return ok
}

var _ port.ProcessEngine = (*MemoryEngine)(nil)
