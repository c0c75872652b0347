package usecase

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

// ExecuteWorkflowUseCase starts a process instance for an ACTIVE workflow and records the run
type ExecuteWorkflowUseCase struct {
	workflows  port.WorkflowRepository
	executions port.ExecutionRepository
	users      port.UserDirectory
	engine     port.ProcessEngine
	txManager  port.TransactionManager
	publisher  port.EventPublisher
	validate   *validator.Validate
	logger     Logger
}

// NewExecuteWorkflowUseCase creates a new ExecuteWorkflowUseCase
func NewExecuteWorkflowUseCase(deps Dependencies) *ExecuteWorkflowUseCase {
	return &ExecuteWorkflowUseCase{
		workflows:  deps.Workflows,
		executions: deps.Executions,
		users:      deps.Users,
		engine:     deps.Engine,
		txManager:  deps.TxManager,
		publisher:  deps.Publisher,
		validate:   newValidator(),
		logger:     deps.Logger,
	}
}

// Execute runs the workflow
func (uc *ExecuteWorkflowUseCase) Execute(ctx context.Context, cmd ExecuteWorkflowCommand) (result *WorkflowExecutionResult, err error) {
	ctx, span := startSpan(ctx, "usecase.ExecuteWorkflow", attribute.Int64(attrWorkflowID, cmd.WorkflowID))
	defer func() { endSpan(span, err) }()

	uc.logger.Info("Executing workflow", "workflow_id", cmd.WorkflowID)

	if err := validateCommand(uc.validate, cmd); err != nil {
		return nil, err
	}

	variables := cmd.Variables
	if variables == nil {
		variables = map[string]interface{}{}
	}

	var execution *entity.WorkflowExecution

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		workflow, err := uc.workflows.FindByID(txCtx, cmd.WorkflowID)
		if err != nil {
			return err
		}
		if workflow == nil {
			return errs.ErrWorkflowNotFound.Withf("Workflow not found with ID: %d", cmd.WorkflowID)
		}
		if !workflow.CanBeExecuted() {
			return errs.ErrWorkflowNotActive.Withf("Workflow '%s' cannot be executed. Current status: %s", workflow.Name, workflow.Status)
		}

		var initiator *entity.User
		if cmd.InitiatorID != nil {
			initiator, err = uc.users.Lookup(txCtx, *cmd.InitiatorID)
			if err != nil {
				return err
			}
		}

		instanceID, err := uc.engine.StartInstance(txCtx, workflow.Name, variables)
		if err != nil {
			uc.logger.Error("Failed to start process instance", "workflow_id", workflow.ID, "name", workflow.Name, "error", err)
			return errs.ErrExecutionStart.Withf("Failed to start workflow execution: %v", err).Wrap(err)
		}
		span.SetAttributes(attribute.String(attrProcessInstanceID, instanceID))

		exec, err := workflow.CreateExecution(variables, cmd.InitiatorID)
		if err != nil {
			return err
		}
		exec.ProcessInstanceID = instanceID
		if initiator != nil {
			exec.StartedByUsername = initiator.Username
		}

		if err := uc.executions.Create(txCtx, exec); err != nil {
			uc.abandonInstance(txCtx, instanceID)
			return err
		}

		execution = exec
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64(attrExecutionID, execution.ID))
	execution.RecordCreated()
	uc.publisher.Publish(ctx, execution.PullEvents()...)

	uc.logger.Info("Workflow execution started",
		"execution_id", execution.ID,
		"process_instance_id", execution.ProcessInstanceID,
	)
	return NewWorkflowExecutionResult(execution), nil
}

// abandonInstance removes an engine instance whose execution record could not be stored
func (uc *ExecuteWorkflowUseCase) abandonInstance(ctx context.Context, instanceID string) {
	if err := uc.engine.DeleteInstance(context.WithoutCancel(ctx), instanceID, "Execution record could not be stored"); err != nil {
		uc.logger.Error("Failed to remove orphaned process instance", "process_instance_id", instanceID, "error", err)
	}
}
