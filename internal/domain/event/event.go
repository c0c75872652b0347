package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of something that already happened
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	AggregateID   int64                  `json:"aggregate_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event stamped with the current time
func NewEvent(eventType Type, aggregateID int64, payload map[string]interface{}) *Event {
	return NewEventAt(eventType, aggregateID, payload, time.Now())
}

// NewEventAt creates a new domain event with an explicit occurrence time
func NewEventAt(eventType Type, aggregateID int64, payload map[string]interface{}, at time.Time) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		AggregateID:   aggregateID,
		Payload:       copyPayload(payload, 0),
		Timestamp:     at,
		CorrelationID: id,
	}
}

// WithCorrelation returns a copy of the event linked to an existing correlation chain
func (e *Event) WithCorrelation(correlationID string) *Event {
	cp := *e
	cp.Payload = copyPayload(e.Payload, 0)
	cp.CorrelationID = correlationID
	return &cp
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	cp := *e
	cp.Payload = copyPayload(e.Payload, 1)
	cp.Payload[key] = value
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload.
// float64 is accepted because payloads that crossed a JSON boundary decode numbers that way.
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

func copyPayload(src map[string]interface{}, extra int) map[string]interface{} {
	dst := make(map[string]interface{}, len(src)+extra)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
