package service

import (
	"context"
	"time"

	"github.com/ukoquique-proves/JavaFlow/internal/application/dispatcher"
	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// EventSubscriber turns domain events into metrics and audit log lines
type EventSubscriber struct {
	metrics port.MetricsRecorder
	logger  Logger
}

// NewEventSubscriber creates a subscriber feeding metrics
func NewEventSubscriber(metrics port.MetricsRecorder, logger Logger) *EventSubscriber {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &EventSubscriber{metrics: metrics, logger: logger}
}

// Register subscribes every handler on d
func (s *EventSubscriber) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeWorkflowCreated, "workflow-audit", s.onWorkflowChanged)
	d.Subscribe(event.TypeWorkflowDeactivated, "workflow-audit", s.onWorkflowChanged)
	d.Subscribe(event.TypeWorkflowArchived, "workflow-audit", s.onWorkflowChanged)
	d.Subscribe(event.TypeWorkflowDeleted, "workflow-audit", s.onWorkflowChanged)
	d.Subscribe(event.TypeWorkflowActivated, "workflow-activation-metrics", s.onWorkflowActivated)
	d.Subscribe(event.TypeExecutionCreated, "execution-metrics", s.onExecutionCreated)
	d.Subscribe(event.TypeExecutionStatusChanged, "execution-metrics", s.onExecutionStatusChanged)
}

func (s *EventSubscriber) onWorkflowChanged(ctx context.Context, evt *event.Event) error {
	s.logger.Info("Workflow changed",
		"event", evt.Type,
		"workflow_id", evt.AggregateID,
		"workflow_name", evt.GetPayloadString(event.KeyWorkflowName),
		"status", evt.GetPayloadString(event.KeyStatus),
	)
	return nil
}

func (s *EventSubscriber) onWorkflowActivated(ctx context.Context, evt *event.Event) error {
	name := evt.GetPayloadString(event.KeyWorkflowName)
	s.metrics.RecordWorkflowActivation(name)
	s.logger.Info("Workflow activated", "workflow_id", evt.AggregateID, "workflow_name", name)
	return nil
}

func (s *EventSubscriber) onExecutionCreated(ctx context.Context, evt *event.Event) error {
	name := evt.GetPayloadString(event.KeyWorkflowName)
	s.metrics.RecordExecution(name, evt.GetPayloadString(event.KeyStatus))
	s.logger.Info("Workflow execution started",
		"execution_id", evt.AggregateID,
		"workflow_name", name,
		"process_instance_id", evt.GetPayloadString(event.KeyProcessInstanceID),
	)
	return nil
}

func (s *EventSubscriber) onExecutionStatusChanged(ctx context.Context, evt *event.Event) error {
	name := evt.GetPayloadString(event.KeyWorkflowName)
	status := evt.GetPayloadString(event.KeyStatus)
	s.metrics.RecordExecution(name, status)

	if _, finished := evt.Payload[event.KeyDurationMillis]; finished {
		s.metrics.RecordExecutionDuration(name, time.Duration(evt.GetPayloadInt(event.KeyDurationMillis))*time.Millisecond)
	}

	s.logger.Info("Workflow execution status changed",
		"execution_id", evt.AggregateID,
		"workflow_name", name,
		"previous_status", evt.GetPayloadString(event.KeyPreviousStatus),
		"status", status,
		"error_message", evt.GetPayloadString(event.KeyErrorMessage),
	)
	return nil
}
