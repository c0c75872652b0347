package entity

import (
	"context"
	"sync"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/statemachine"
)

type workflowTrigger string

const (
	workflowTriggerActivate   workflowTrigger = "ACTIVATE"
	workflowTriggerDeactivate workflowTrigger = "DEACTIVATE"
	workflowTriggerArchive    workflowTrigger = "ARCHIVE"
)

func (t workflowTrigger) String() string { return string(t) }

type executionTrigger string

const (
	executionTriggerComplete executionTrigger = "COMPLETE"
	executionTriggerFail     executionTrigger = "FAIL"
	executionTriggerCancel   executionTrigger = "CANCEL"
	executionTriggerSuspend  executionTrigger = "SUSPEND"
	executionTriggerResume   executionTrigger = "RESUME"
)

func (t executionTrigger) String() string { return string(t) }

// Transition tables are built on first use, after package initialization has finished.
// Build is read-only and safe for concurrent use.
var (
	workflowMachine  = sync.OnceValue(buildWorkflowMachine)
	executionMachine = sync.OnceValue(buildExecutionMachine)
)

func buildWorkflowMachine() statemachine.Builder[WorkflowStatus, workflowTrigger] {
	b := statemachine.NewBuilder[WorkflowStatus, workflowTrigger]()

	b.Configure(WorkflowStatusDraft).
		Permit(workflowTriggerActivate, WorkflowStatusActive).
		Permit(workflowTriggerArchive, WorkflowStatusArchived)

	b.Configure(WorkflowStatusActive).
		Permit(workflowTriggerDeactivate, WorkflowStatusInactive)

	b.Configure(WorkflowStatusInactive).
		Permit(workflowTriggerArchive, WorkflowStatusArchived)

	// ARCHIVED is terminal

	return b
}

func buildExecutionMachine() statemachine.Builder[ExecutionStatus, executionTrigger] {
	b := statemachine.NewBuilder[ExecutionStatus, executionTrigger]()

	b.Configure(ExecutionStatusRunning).
		Permit(executionTriggerComplete, ExecutionStatusCompleted).
		Permit(executionTriggerFail, ExecutionStatusFailed).
		Permit(executionTriggerCancel, ExecutionStatusCancelled).
		Permit(executionTriggerSuspend, ExecutionStatusSuspended)

	b.Configure(ExecutionStatusSuspended).
		Permit(executionTriggerResume, ExecutionStatusRunning).
		Permit(executionTriggerFail, ExecutionStatusFailed).
		Permit(executionTriggerCancel, ExecutionStatusCancelled)

	// COMPLETED, FAILED and CANCELLED are terminal

	return b
}

func fireWorkflow(from WorkflowStatus, trigger workflowTrigger) (WorkflowStatus, error) {
	m := workflowMachine().Build(from)
	if err := m.Fire(context.Background(), trigger); err != nil {
		return from, err
	}
	return m.State(), nil
}

func fireExecution(from ExecutionStatus, trigger executionTrigger) (ExecutionStatus, error) {
	m := executionMachine().Build(from)
	if err := m.Fire(context.Background(), trigger); err != nil {
		return from, err
	}
	return m.State(), nil
}
