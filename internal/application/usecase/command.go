package usecase

// CreateWorkflowCommand asks for a new DRAFT workflow
type CreateWorkflowCommand struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=500"`
	Definition  string `json:"definition" validate:"required"`
	CreatorID   int64  `json:"creator_id" validate:"required,gt=0"`
}

// ActivateWorkflowCommand asks for a DRAFT workflow to be deployed and activated
type ActivateWorkflowCommand struct {
	WorkflowID int64 `json:"workflow_id" validate:"required,gt=0"`
}

// ExecuteWorkflowCommand asks for a new run of an ACTIVE workflow.
// A nil InitiatorID means the run is started by the system.
type ExecuteWorkflowCommand struct {
	WorkflowID  int64                  `json:"workflow_id" validate:"required,gt=0"`
	Variables   map[string]interface{} `json:"variables"`
	InitiatorID *int64                 `json:"initiator_id" validate:"omitempty,gt=0"`
}
