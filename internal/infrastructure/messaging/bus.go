// Package messaging carries domain events between adapters over watermill.
// Inbound bot messages enter here from the webhook and are consumed by the bot service.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

const (
	metadataEventType     = "event_type"
	metadataCorrelationID = "correlation_id"
	topicPrefix           = "javaflow."
)

// Handler consumes one decoded event
type Handler func(ctx context.Context, evt *event.Event) error

// Bus publishes events to one topic per event type and fans them out to handlers
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *zap.Logger

	mu       sync.Mutex
	handlers map[event.Type][]Handler
	started  bool
	wg       sync.WaitGroup
}

// NewBus creates a bus over an existing publisher and subscriber
func NewBus(pub message.Publisher, sub message.Subscriber, logger *zap.Logger) *Bus {
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With(zap.String("component", "event_bus")),
		handlers:   make(map[event.Type][]Handler),
	}
}

// NewGoChannelBus creates an in-process bus
func NewGoChannelBus(logger *zap.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		NewZapAdapter(logger),
	)
	return NewBus(pubSub, pubSub, logger)
}

// Topic returns the topic name for an event type
func Topic(t event.Type) string {
	return topicPrefix + string(t)
}

// Publish encodes the event as JSON and publishes it on its type's topic
func (b *Bus) Publish(ctx context.Context, evt *event.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataEventType, string(evt.Type))
	msg.Metadata.Set(metadataCorrelationID, evt.CorrelationID)
	msg.SetContext(ctx)

	if err := b.publisher.Publish(Topic(evt.Type), msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}

// Handle registers a handler. Handlers must be registered before Start.
func (b *Bus) Handle(eventType event.Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Start subscribes every handled topic. Consumption stops when ctx is cancelled or the bus is closed.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return fmt.Errorf("event bus already started")
	}

	for eventType, handlers := range b.handlers {
		messages, err := b.subscriber.Subscribe(ctx, Topic(eventType))
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
		}

		b.wg.Add(1)
		go b.consume(ctx, eventType, handlers, messages)
	}

	b.started = true
	b.logger.Info("Event bus started", zap.Int("topics", len(b.handlers)))
	return nil
}

// consume acks every message; a failing handler is logged, not redelivered
func (b *Bus) consume(ctx context.Context, eventType event.Type, handlers []Handler, messages <-chan *message.Message) {
	defer b.wg.Done()

	for msg := range messages {
		var evt event.Event
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			b.logger.Error("Dropping undecodable message",
				zap.String("message_uuid", msg.UUID),
				zap.String("event_type", string(eventType)),
				zap.Error(err))
			msg.Ack()
			continue
		}

		for _, h := range handlers {
			if err := b.invoke(ctx, h, &evt); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_id", evt.ID),
					zap.String("event_type", string(evt.Type)),
					zap.Error(err))
			}
		}
		msg.Ack()
	}
}

func (b *Bus) invoke(ctx context.Context, h Handler, evt *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}

// Close shuts the publisher and subscriber down and waits for consumers to drain
func (b *Bus) Close() error {
	var firstErr error
	if err := b.publisher.Close(); err != nil {
		firstErr = err
	}
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.wg.Wait()
	return firstErr
}
