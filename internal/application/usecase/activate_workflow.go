package usecase

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

// ActivateWorkflowUseCase deploys a DRAFT workflow to the engine and marks it ACTIVE
type ActivateWorkflowUseCase struct {
	workflows port.WorkflowRepository
	engine    port.ProcessEngine
	txManager port.TransactionManager
	publisher port.EventPublisher
	validate  *validator.Validate
	logger    Logger
}

// NewActivateWorkflowUseCase creates a new ActivateWorkflowUseCase
func NewActivateWorkflowUseCase(deps Dependencies) *ActivateWorkflowUseCase {
	return &ActivateWorkflowUseCase{
		workflows: deps.Workflows,
		engine:    deps.Engine,
		txManager: deps.TxManager,
		publisher: deps.Publisher,
		validate:  newValidator(),
		logger:    deps.Logger,
	}
}

// Execute activates the workflow. The ACTIVE status is persisted only after the engine accepted the deployment.
// Deployment runs outside the transaction and the status is re-checked on a fresh read before it is written.
func (uc *ActivateWorkflowUseCase) Execute(ctx context.Context, cmd ActivateWorkflowCommand) (result *WorkflowResult, err error) {
	ctx, span := startSpan(ctx, "usecase.ActivateWorkflow", attribute.Int64(attrWorkflowID, cmd.WorkflowID))
	defer func() { endSpan(span, err) }()

	uc.logger.Info("Activating workflow", "workflow_id", cmd.WorkflowID)

	if err := validateCommand(uc.validate, cmd); err != nil {
		return nil, err
	}

	candidate, err := uc.load(ctx, cmd.WorkflowID)
	if err != nil {
		return nil, err
	}
	if err := candidate.Activate(); err != nil {
		uc.logger.Error("Workflow activation rejected", "workflow_id", candidate.ID, "name", candidate.Name, "error", err)
		return nil, err
	}

	deploymentID, err := uc.engine.Deploy(ctx, candidate.Name, candidate.ResourceName(), candidate.Definition)
	if err != nil {
		uc.logger.Error("Failed to deploy workflow", "workflow_id", candidate.ID, "name", candidate.Name, "error", err)
		return nil, errs.ErrDeployment.Withf("Failed to deploy workflow to process engine: %v", err).Wrap(err)
	}
	span.SetAttributes(attribute.String("javaflow.deployment.id", deploymentID))
	uc.logger.Info("Workflow deployed", "workflow_id", candidate.ID, "name", candidate.Name, "deployment_id", deploymentID)

	var workflow *entity.Workflow
	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		w, err := uc.load(txCtx, cmd.WorkflowID)
		if err != nil {
			return err
		}
		if err := w.Activate(); err != nil {
			uc.logger.Warn("Workflow changed while deploying", "workflow_id", w.ID, "deployment_id", deploymentID, "error", err)
			return err
		}
		if err := uc.workflows.Update(txCtx, w); err != nil {
			return err
		}
		workflow = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, workflow.PullEvents()...)
	return NewWorkflowResult(workflow), nil
}

func (uc *ActivateWorkflowUseCase) load(ctx context.Context, id int64) (*entity.Workflow, error) {
	workflow, err := uc.workflows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, errs.ErrWorkflowNotFound.Withf("Workflow not found with ID: %d", id)
	}
	return workflow, nil
}
