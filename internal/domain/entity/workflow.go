package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

const (
	MinWorkflowNameLength  = 3
	MaxWorkflowNameLength  = 100
	MaxDescriptionLength   = 500
	DefinitionResourceType = ".bpmn20.xml"
)

// Workflow is the aggregate root for a named, versioned process definition.
// Fields are exported for persistence mapping; lifecycle changes go through the methods below.
type Workflow struct {
	ID          int64
	Name        string
	Description string
	Definition  string
	Version     int
	Status      WorkflowStatus
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Eager-loaded associations, nil unless the repository query fetched them
	Creator    *User
	Executions []*WorkflowExecution

	events []*event.Event
}

// NewWorkflow builds a DRAFT workflow at version 1
func NewWorkflow(name, description, definition string, createdBy int64) *Workflow {
	ts := now()
	return &Workflow{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Definition:  definition,
		Version:     1,
		Status:      WorkflowStatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// ResourceName is the deployment resource name handed to the process engine
func (w *Workflow) ResourceName() string {
	return w.Name + DefinitionResourceType
}

// RecordCreated queues the creation fact once storage has assigned an ID
func (w *Workflow) RecordCreated() {
	w.record(event.TypeWorkflowCreated, nil)
}

// RecordDeleted queues the deletion fact
func (w *Workflow) RecordDeleted() {
	w.record(event.TypeWorkflowDeleted, nil)
}

// Activate moves a DRAFT workflow with a valid definition and name to ACTIVE
func (w *Workflow) Activate() error {
	if w.Status == WorkflowStatusActive {
		return errs.ErrWorkflowAlreadyActive.Withf("Workflow '%s' is already active", w.Name)
	}
	if !w.CanBeActivated() {
		return errs.ErrWorkflowCannotBeActivated.Withf("Workflow '%s' cannot be activated: %s", w.Name, w.BlockingReason())
	}

	if err := w.transition(workflowTriggerActivate); err != nil {
		return err
	}

	w.record(event.TypeWorkflowActivated, nil)
	return nil
}

// Deactivate moves an ACTIVE workflow to INACTIVE
func (w *Workflow) Deactivate() error {
	if w.Status != WorkflowStatusActive {
		return errs.ErrWorkflowCannotBeActivated.Withf("Workflow '%s' is not active. Current status: %s", w.Name, w.Status)
	}

	if err := w.transition(workflowTriggerDeactivate); err != nil {
		return err
	}

	w.record(event.TypeWorkflowDeactivated, nil)
	return nil
}

// Archive retires the workflow. Archiving an archived workflow is a no-op.
func (w *Workflow) Archive() error {
	switch w.Status {
	case WorkflowStatusArchived:
		return nil
	case WorkflowStatusActive:
		return errs.ErrWorkflowCannotBeActivated.Withf("Cannot archive active workflow '%s'. Deactivate it first.", w.Name)
	}

	if err := w.transition(workflowTriggerArchive); err != nil {
		return err
	}

	w.record(event.TypeWorkflowArchived, nil)
	return nil
}

// CreateExecution starts a new RUNNING execution owned by this workflow.
// initiatorID nil means the run was started by the system.
func (w *Workflow) CreateExecution(variables map[string]interface{}, initiatorID *int64) (*WorkflowExecution, error) {
	if w.Status != WorkflowStatusActive {
		return nil, errs.ErrWorkflowNotActive.Withf("Cannot execute workflow '%s'. Current status: %s", w.Name, w.Status)
	}

	if variables == nil {
		variables = map[string]interface{}{}
	}
	encoded, err := json.Marshal(variables)
	if err != nil {
		return nil, errs.ErrInvalidCommand.Withf("variables are not serializable").Wrap(err)
	}

	exec := &WorkflowExecution{
		WorkflowID:   w.ID,
		WorkflowName: w.Name,
		Status:       ExecutionStatusRunning,
		StartedAt:    now(),
		StartedBy:    initiatorID,
		Variables:    string(encoded),
	}
	w.Executions = append(w.Executions, exec)

	return exec, nil
}

// CanBeActivated is true for a DRAFT workflow with a valid definition and name
func (w *Workflow) CanBeActivated() bool {
	return w.Status == WorkflowStatusDraft && w.HasValidDefinition() && w.HasValidName()
}

// CanBeExecuted is true for an ACTIVE workflow with a valid definition
func (w *Workflow) CanBeExecuted() bool {
	return w.Status == WorkflowStatusActive && w.HasValidDefinition()
}

// BlockingReason explains why the workflow cannot be activated, empty when it can
func (w *Workflow) BlockingReason() string {
	switch {
	case w.Status == WorkflowStatusArchived:
		return "workflow is archived"
	case w.Status == WorkflowStatusActive:
		return "workflow is already active"
	case w.Status != WorkflowStatusDraft:
		return fmt.Sprintf("only draft workflows can be activated, current status: %s", w.Status)
	case !w.HasValidDefinition():
		return "BPMN definition is missing or invalid"
	case !w.HasValidName():
		return "workflow name is invalid"
	}
	return ""
}

// HasValidDefinition checks the definition carries a recognizable process marker
func (w *Workflow) HasValidDefinition() bool {
	def := strings.ToLower(strings.TrimSpace(w.Definition))
	if def == "" {
		return false
	}
	return strings.Contains(def, "<bpmn") || strings.Contains(def, "<definitions")
}

// HasValidName checks the trimmed name length
func (w *Workflow) HasValidName() bool {
	n := utf8.RuneCountInString(strings.TrimSpace(w.Name))
	return n >= MinWorkflowNameLength && n <= MaxWorkflowNameLength
}

// ExecutionCount is the number of loaded executions
func (w *Workflow) ExecutionCount() int {
	return len(w.Executions)
}

// SuccessfulExecutionCount counts COMPLETED executions
func (w *Workflow) SuccessfulExecutionCount() int {
	return w.countExecutions(ExecutionStatusCompleted)
}

// FailedExecutionCount counts FAILED executions
func (w *Workflow) FailedExecutionCount() int {
	return w.countExecutions(ExecutionStatusFailed)
}

// ActiveExecutionCount counts RUNNING and SUSPENDED executions
func (w *Workflow) ActiveExecutionCount() int {
	return w.countExecutions(ExecutionStatusRunning) + w.countExecutions(ExecutionStatusSuspended)
}

// SuccessRate is the percentage of COMPLETED executions, 0 when there are none
func (w *Workflow) SuccessRate() float64 {
	total := w.ExecutionCount()
	if total == 0 {
		return 0.0
	}
	return float64(w.SuccessfulExecutionCount()) / float64(total) * 100
}

// PullEvents returns the queued domain events and clears the outbox
func (w *Workflow) PullEvents() []*event.Event {
	evts := w.events
	w.events = nil
	return evts
}

func (w *Workflow) countExecutions(status ExecutionStatus) int {
	count := 0
	for _, e := range w.Executions {
		if e.Status == status {
			count++
		}
	}
	return count
}

func (w *Workflow) transition(trigger workflowTrigger) error {
	next, err := fireWorkflow(w.Status, trigger)
	if err != nil {
		return errs.ErrWorkflowCannotBeActivated.Withf("Workflow '%s' cannot %s from status %s", w.Name, strings.ToLower(trigger.String()), w.Status).Wrap(err)
	}
	w.Status = next
	w.UpdatedAt = now()
	return nil
}

func (w *Workflow) record(eventType event.Type, extra map[string]interface{}) {
	payload := map[string]interface{}{
		event.KeyWorkflowID:   w.ID,
		event.KeyWorkflowName: w.Name,
		event.KeyStatus:       w.Status.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	w.events = append(w.events, event.NewEventAt(eventType, w.ID, payload, now()))
}
