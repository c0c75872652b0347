package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukoquique-proves/JavaFlow/internal/application/dispatcher"
	"github.com/ukoquique-proves/JavaFlow/internal/application/port/porttest"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

func TestEventSubscriber_Register(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	NewEventSubscriber(porttest.NewMetrics(), porttest.Logger{}).Register(d)

	for _, eventType := range []event.Type{
		event.TypeWorkflowCreated,
		event.TypeWorkflowActivated,
		event.TypeExecutionCreated,
		event.TypeExecutionStatusChanged,
	} {
		assert.NotEmpty(t, d.ListHandlers(eventType), "no handler for %s", eventType)
	}
}

func TestEventSubscriber_Metrics(t *testing.T) {
	metrics := porttest.NewMetrics()
	d := dispatcher.NewDispatcher()
	defer d.Close()
	NewEventSubscriber(metrics, porttest.Logger{}).Register(d)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeWorkflowActivated, 1, map[string]interface{}{
		event.KeyWorkflowName: "Invoice Approval",
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeExecutionCreated, 10, map[string]interface{}{
		event.KeyWorkflowName: "Invoice Approval",
		event.KeyStatus:       "RUNNING",
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeExecutionStatusChanged, 10, map[string]interface{}{
		event.KeyWorkflowName:   "Invoice Approval",
		event.KeyPreviousStatus: "RUNNING",
		event.KeyStatus:         "COMPLETED",
		event.KeyDurationMillis: int64(1500),
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeExecutionStatusChanged, 11, map[string]interface{}{
		event.KeyWorkflowName:   "Invoice Approval",
		event.KeyPreviousStatus: "RUNNING",
		event.KeyStatus:         "SUSPENDED",
	})))

	assert.Equal(t, 1, metrics.Activations["Invoice Approval"])
	assert.Equal(t, 1, metrics.Executions["Invoice Approval/RUNNING"])
	assert.Equal(t, 1, metrics.Executions["Invoice Approval/COMPLETED"])
	assert.Equal(t, 1, metrics.Executions["Invoice Approval/SUSPENDED"])
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, metrics.Durations["Invoice Approval"])
}
