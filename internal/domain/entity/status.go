package entity

// WorkflowStatus is the lifecycle state of a workflow definition
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "DRAFT"
	WorkflowStatusActive   WorkflowStatus = "ACTIVE"
	WorkflowStatusInactive WorkflowStatus = "INACTIVE"
	WorkflowStatusArchived WorkflowStatus = "ARCHIVED"
)

// IsValid returns true if the status is a known workflow status
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusInactive, WorkflowStatusArchived:
		return true
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusArchived
}

func (s WorkflowStatus) String() string {
	return string(s)
}

// ExecutionStatus is the lifecycle state of a single workflow run
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
	ExecutionStatusSuspended ExecutionStatus = "SUSPENDED"
)

// IsValid returns true if the status is a known execution status
func (s ExecutionStatus) IsValid() bool {
	return s == ExecutionStatusRunning || s == ExecutionStatusSuspended || s.IsFinished()
}

// IsFinished returns true for COMPLETED, FAILED and CANCELLED
func (s ExecutionStatus) IsFinished() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// IsActive returns true while the execution still holds engine resources
func (s ExecutionStatus) IsActive() bool {
	return s == ExecutionStatusRunning || s == ExecutionStatusSuspended
}

func (s ExecutionStatus) String() string {
	return string(s)
}
