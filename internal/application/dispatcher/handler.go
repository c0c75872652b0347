package dispatcher

import (
	"context"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// Handler reacts to a published domain event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered subscriber
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
