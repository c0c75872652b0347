package usecase

import (
	"time"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

// WorkflowResult is the caller-facing snapshot of a workflow
type WorkflowResult struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Status            string    `json:"status"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CreatedByID       int64     `json:"created_by_id"`
	CreatedByUsername string    `json:"created_by_username"`

	// Populated only by queries that load executions
	ExecutionCount   int     `json:"execution_count"`
	SuccessRate      float64 `json:"success_rate"`
	ActiveExecutions int     `json:"active_executions"`
}

// NewWorkflowResult snapshots a workflow. The creator name falls back to the system initiator when unknown.
func NewWorkflowResult(w *entity.Workflow) *WorkflowResult {
	res := &WorkflowResult{
		ID:                w.ID,
		Name:              w.Name,
		Description:       w.Description,
		Status:            w.Status.String(),
		Version:           w.Version,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
		CreatedByID:       w.CreatedBy,
		CreatedByUsername: entity.SystemInitiator,
		ExecutionCount:    w.ExecutionCount(),
		SuccessRate:       w.SuccessRate(),
		ActiveExecutions:  w.ActiveExecutionCount(),
	}
	if w.Creator != nil {
		res.CreatedByUsername = w.Creator.Username
	}
	return res
}

// NewWorkflowResults snapshots a list of workflows
func NewWorkflowResults(workflows []*entity.Workflow) []*WorkflowResult {
	out := make([]*WorkflowResult, 0, len(workflows))
	for _, w := range workflows {
		out = append(out, NewWorkflowResult(w))
	}
	return out
}

// WorkflowExecutionResult is the caller-facing snapshot of an execution
type WorkflowExecutionResult struct {
	ExecutionID       int64      `json:"execution_id"`
	WorkflowID        int64      `json:"workflow_id"`
	WorkflowName      string     `json:"workflow_name"`
	ProcessInstanceID string     `json:"process_instance_id"`
	Status            string     `json:"status"`
	StatusDescription string     `json:"status_description"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	DurationMillis    int64      `json:"duration_ms"`
	StartedByUsername string     `json:"started_by_username"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// NewWorkflowExecutionResult snapshots an execution
func NewWorkflowExecutionResult(e *entity.WorkflowExecution) *WorkflowExecutionResult {
	return &WorkflowExecutionResult{
		ExecutionID:       e.ID,
		WorkflowID:        e.WorkflowID,
		WorkflowName:      e.WorkflowName,
		ProcessInstanceID: e.ProcessInstanceID,
		Status:            e.Status.String(),
		StatusDescription: e.StatusDescription(),
		StartedAt:         e.StartedAt,
		EndedAt:           e.EndedAt,
		DurationMillis:    e.DurationMillis(),
		StartedByUsername: e.InitiatorName(),
		ErrorMessage:      e.ErrorMessage,
	}
}

// NewWorkflowExecutionResults snapshots a list of executions
func NewWorkflowExecutionResults(executions []*entity.WorkflowExecution) []*WorkflowExecutionResult {
	out := make([]*WorkflowExecutionResult, 0, len(executions))
	for _, e := range executions {
		out = append(out, NewWorkflowExecutionResult(e))
	}
	return out
}
