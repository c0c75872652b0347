// Package dispatcher is the in-process domain event channel.
// Use cases publish drained aggregate events after commit; subscribers never
// influence the outcome of the operation that produced the event.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	// Subscribe registers a named handler for an event type
	Subscribe(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Publish delivers events in order, synchronously or asynchronously depending on their type.
	// Handler failures are logged, never returned.
	Publish(ctx context.Context, events ...*event.Event)

	// Dispatch runs every handler for the event in the caller's goroutine and joins their errors
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs the handlers on background goroutines detached from ctx cancellation
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close stops accepting events and waits for in-flight async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	// closeMu orders wg.Add in DispatchAsync before wg.Wait in Close
	closeMu sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("%s-handler-%d", eventType, len(d.handlers[eventType]))
	}

	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.handlers[eventType]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[eventType] = filtered

	d.logInfo("Handler unregistered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Publish(ctx context.Context, events ...*event.Event) {
	for _, evt := range events {
		if evt == nil {
			continue
		}
		if evt.Type.Synchronous() {
			if err := d.Dispatch(ctx, evt); err != nil {
				d.logError("Synchronous event delivery failed",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"error", err,
				)
			}
			continue
		}
		d.DispatchAsync(ctx, evt)
	}
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.isClosed() {
		return ErrClosed
	}

	handlers := d.snapshot(evt.Type)

	var errs []error
	for _, info := range handlers {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			d.logError("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("handler %s failed: %w", info.Name, err))
		}
	}

	return errors.Join(errs...)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()

	if d.closed {
		d.logError("Cannot dispatch async event, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
		)
		return
	}

	// The triggering request may finish before the handlers do
	detached := context.WithoutCancel(ctx)

	handlers := d.snapshot(evt.Type)
	d.wg.Add(len(handlers))
	for _, info := range handlers {
		go func(h HandlerInfo) {
			defer d.wg.Done()

			if err := d.safeExecute(detached, evt, h); err != nil {
				d.logError("Async handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", h.Name,
					"error", err,
				)
			}
		}(info)
	}
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	handlers := d.snapshot(eventType)
	for i := range handlers {
		handlers[i].Handler = nil
	}
	return handlers
}

func (d *eventDispatcher) Close() error {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.closeMu.Unlock()

	d.logInfo("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.logInfo("Dispatcher closed")

	return nil
}

func (d *eventDispatcher) isClosed() bool {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	return d.closed
}

func (d *eventDispatcher) snapshot(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[eventType]
	out := make([]HandlerInfo, len(handlers))
	copy(out, handlers)
	return out
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) logError(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}
