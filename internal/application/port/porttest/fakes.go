package porttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// Engine is a scripted port.ProcessEngine that records its calls
type Engine struct {
	mu sync.Mutex

	DeployErr error
	StartErr  error
	DeleteErr error

	// OnDeploy runs inside Deploy before it returns
	OnDeploy func()

	Deployments []string
	DeploysInTx int
	Started     []string
	Deleted     map[string]string
	Variables   map[string]map[string]interface{}
}

func NewEngine() *Engine {
	return &Engine{
		Deleted:   make(map[string]string),
		Variables: make(map[string]map[string]interface{}),
	}
}

func (e *Engine) Deploy(ctx context.Context, name, resourceName, definition string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if InTransaction(ctx) {
		e.DeploysInTx++
	}
	if e.OnDeploy != nil {
		e.OnDeploy()
	}
	if e.DeployErr != nil {
		return "", e.DeployErr
	}
	e.Deployments = append(e.Deployments, resourceName)
	return fmt.Sprintf("deployment-%d", len(e.Deployments)), nil
}

func (e *Engine) StartInstance(ctx context.Context, processKey string, variables map[string]interface{}) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.StartErr != nil {
		return "", e.StartErr
	}
	id := fmt.Sprintf("%s-instance-%d", processKey, len(e.Started)+1)
	e.Started = append(e.Started, id)
	e.Variables[id] = variables
	return id, nil
}

func (e *Engine) DeleteInstance(ctx context.Context, instanceID, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.DeleteErr != nil {
		return e.DeleteErr
	}
	e.Deleted[instanceID] = reason
	return nil
}

// DeploymentCount is the number of accepted deployments
func (e *Engine) DeploymentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Deployments)
}

// StartCount is the number of started instances
func (e *Engine) StartCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Started)
}

type txKey struct{}

// InTransaction reports whether ctx was handed out by TxManager
func InTransaction(ctx context.Context) bool {
	in, _ := ctx.Value(txKey{}).(bool)
	return in
}

// TxManager runs the callback directly and counts calls
type TxManager struct {
	mu    sync.Mutex
	Calls int
}

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (p *Publisher) Publish(ctx context.Context, events ...*event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

// Events returns a copy of everything published so far
func (p *Publisher) Events() []*event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*event.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types lists the published event types in order
func (p *Publisher) Types() []event.Type {
	var types []event.Type
	for _, evt := range p.Events() {
		types = append(types, evt.Type)
	}
	return types
}

// Logger discards everything
type Logger struct{}

func (Logger) Info(msg string, keysAndValues ...interface{})  {}
func (Logger) Warn(msg string, keysAndValues ...interface{})  {}
func (Logger) Error(msg string, keysAndValues ...interface{}) {}
