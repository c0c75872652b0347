package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// SystemInitiator is the display name used when an execution has no starting user
const SystemInitiator = "System"

// WorkflowExecution is one run of a Workflow inside the process engine
type WorkflowExecution struct {
	ID                int64
	WorkflowID        int64
	WorkflowName      string
	ProcessInstanceID string
	Status            ExecutionStatus
	StartedAt         time.Time
	EndedAt           *time.Time
	StartedBy         *int64
	StartedByUsername string
	ErrorMessage      string
	Variables         string

	events []*event.Event
}

// RecordCreated queues the creation fact once storage has assigned an ID
func (e *WorkflowExecution) RecordCreated() {
	e.events = append(e.events, event.NewEventAt(event.TypeExecutionCreated, e.ID, map[string]interface{}{
		event.KeyExecutionID:       e.ID,
		event.KeyWorkflowID:        e.WorkflowID,
		event.KeyWorkflowName:      e.WorkflowName,
		event.KeyProcessInstanceID: e.ProcessInstanceID,
		event.KeyStatus:            e.Status.String(),
	}, now()))
}

// Complete finishes a RUNNING execution successfully
func (e *WorkflowExecution) Complete() error {
	if e.Status != ExecutionStatusRunning {
		return e.rejected("complete")
	}
	return e.fire(executionTriggerComplete, "")
}

// Fail finishes a RUNNING or SUSPENDED execution with an error message
func (e *WorkflowExecution) Fail(message string) error {
	if e.Status.IsFinished() {
		return e.rejected("fail")
	}
	if message == "" {
		message = "Unknown error"
	}
	return e.fire(executionTriggerFail, message)
}

// Cancel finishes a RUNNING or SUSPENDED execution without an error
func (e *WorkflowExecution) Cancel() error {
	if e.Status.IsFinished() {
		return e.rejected("cancel")
	}
	return e.fire(executionTriggerCancel, "")
}

// Suspend pauses a RUNNING execution
func (e *WorkflowExecution) Suspend() error {
	if e.Status != ExecutionStatusRunning {
		return e.rejected("suspend")
	}
	return e.fire(executionTriggerSuspend, "")
}

// Resume returns a SUSPENDED execution to RUNNING
func (e *WorkflowExecution) Resume() error {
	if e.Status != ExecutionStatusSuspended {
		return e.rejected("resume")
	}
	return e.fire(executionTriggerResume, "")
}

// ApplyStatus applies a status reported asynchronously by the process engine.
// Re-delivered statuses and a RUNNING report for a running execution are no-ops;
// anything that would overwrite a finished execution is a conflict.
func (e *WorkflowExecution) ApplyStatus(status ExecutionStatus, errorMessage string) (bool, error) {
	if !status.IsValid() {
		return false, errs.ErrInvalidCommand.Withf("invalid execution status: %s", status)
	}
	if status == e.Status {
		return false, nil
	}
	if e.Status.IsFinished() {
		return false, errs.ErrExecutionConflict.Withf("Execution %d is already %s, cannot apply %s", e.ID, e.Status, status)
	}

	var err error
	switch status {
	case ExecutionStatusCompleted:
		if e.Status == ExecutionStatusSuspended {
			return false, errs.ErrExecutionConflict.Withf("Execution %d is suspended, cannot apply %s", e.ID, status)
		}
		err = e.Complete()
	case ExecutionStatusFailed:
		err = e.Fail(errorMessage)
	case ExecutionStatusCancelled:
		err = e.Cancel()
	case ExecutionStatusSuspended:
		err = e.Suspend()
	case ExecutionStatusRunning:
		err = e.Resume()
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Duration is the elapsed run time, measured up to now while the execution is unfinished
func (e *WorkflowExecution) Duration() time.Duration {
	end := now()
	if e.EndedAt != nil {
		end = *e.EndedAt
	}
	return end.Sub(e.StartedAt)
}

func (e *WorkflowExecution) DurationMillis() int64 {
	return e.Duration().Milliseconds()
}

func (e *WorkflowExecution) DurationSeconds() int64 {
	return int64(e.Duration().Seconds())
}

// IsRunningLongerThan is false for any execution that is not RUNNING
func (e *WorkflowExecution) IsRunningLongerThan(d time.Duration) bool {
	return e.Status == ExecutionStatusRunning && e.Duration() > d
}

// StatusDescription renders the status for people
func (e *WorkflowExecution) StatusDescription() string {
	switch e.Status {
	case ExecutionStatusRunning:
		return "Execution in progress"
	case ExecutionStatusCompleted:
		return "Execution completed successfully"
	case ExecutionStatusFailed:
		msg := e.ErrorMessage
		if msg == "" {
			msg = "Unknown error"
		}
		return "Execution failed: " + msg
	case ExecutionStatusCancelled:
		return "Execution cancelled"
	case ExecutionStatusSuspended:
		return "Execution suspended"
	default:
		return "Unknown status"
	}
}

// InitiatorName is the starting user's name, or SystemInitiator for system runs
func (e *WorkflowExecution) InitiatorName() string {
	if e.StartedBy == nil || e.StartedByUsername == "" {
		return SystemInitiator
	}
	return e.StartedByUsername
}

// VariablesMap decodes the stored input variables
func (e *WorkflowExecution) VariablesMap() (map[string]interface{}, error) {
	vars := map[string]interface{}{}
	if e.Variables == "" {
		return vars, nil
	}
	if err := json.Unmarshal([]byte(e.Variables), &vars); err != nil {
		return nil, fmt.Errorf("failed to decode execution variables: %w", err)
	}
	return vars, nil
}

// PullEvents returns the queued domain events and clears the outbox
func (e *WorkflowExecution) PullEvents() []*event.Event {
	evts := e.events
	e.events = nil
	return evts
}

func (e *WorkflowExecution) fire(trigger executionTrigger, errorMessage string) error {
	from := e.Status
	next, err := fireExecution(from, trigger)
	if err != nil {
		return errs.ErrInvalidExecutionTransition.Withf("Execution %d cannot %s from status %s", e.ID, trigger, from).Wrap(err)
	}

	e.Status = next
	if next.IsFinished() {
		ts := now()
		e.EndedAt = &ts
	}
	if next == ExecutionStatusFailed {
		e.ErrorMessage = errorMessage
	}

	payload := map[string]interface{}{
		event.KeyExecutionID:       e.ID,
		event.KeyWorkflowID:        e.WorkflowID,
		event.KeyWorkflowName:      e.WorkflowName,
		event.KeyProcessInstanceID: e.ProcessInstanceID,
		event.KeyPreviousStatus:    from.String(),
		event.KeyStatus:            next.String(),
	}
	if e.ErrorMessage != "" {
		payload[event.KeyErrorMessage] = e.ErrorMessage
	}
	if e.EndedAt != nil {
		payload[event.KeyDurationMillis] = e.DurationMillis()
	}
	e.events = append(e.events, event.NewEventAt(event.TypeExecutionStatusChanged, e.ID, payload, now()))
	return nil
}

func (e *WorkflowExecution) rejected(action string) error {
	return errs.ErrInvalidExecutionTransition.Withf("Execution %d cannot %s, current status: %s", e.ID, action, e.Status)
}
