package usecase

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/validation"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

// CreateWorkflowUseCase stores a new DRAFT workflow
type CreateWorkflowUseCase struct {
	workflows  port.WorkflowRepository
	users      port.UserDirectory
	txManager  port.TransactionManager
	publisher  port.EventPublisher
	validation validation.Service
	validate   *validator.Validate
	logger     Logger
}

// NewCreateWorkflowUseCase creates a new CreateWorkflowUseCase
func NewCreateWorkflowUseCase(deps Dependencies, validationSvc validation.Service) *CreateWorkflowUseCase {
	return &CreateWorkflowUseCase{
		workflows:  deps.Workflows,
		users:      deps.Users,
		txManager:  deps.TxManager,
		publisher:  deps.Publisher,
		validation: validationSvc,
		validate:   newValidator(),
		logger:     deps.Logger,
	}
}

// Execute validates the command and persists the workflow.
// Nothing is written unless every check passes.
func (uc *CreateWorkflowUseCase) Execute(ctx context.Context, cmd CreateWorkflowCommand) (result *WorkflowResult, err error) {
	ctx, span := startSpan(ctx, "usecase.CreateWorkflow", attribute.String(attrWorkflowName, cmd.Name))
	defer func() { endSpan(span, err) }()

	uc.logger.Info("Creating workflow", "name", cmd.Name, "creator_id", cmd.CreatorID)

	if err := validateCommand(uc.validate, cmd); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, errs.ErrInvalidWorkflowData.Withf("Workflow name is required")
	}

	defResult := uc.validation.ValidateDefinition(cmd.Definition)
	if !defResult.Valid {
		return nil, errs.ErrInvalidWorkflowData.Withf("Invalid BPMN XML: %s", defResult.ErrorMessage())
	}
	if defResult.HasWarnings() {
		uc.logger.Warn("BPMN validation warnings", "name", name, "warnings", defResult.WarningMessage())
	}

	workflow := entity.NewWorkflow(name, cmd.Description, cmd.Definition, cmd.CreatorID)

	rules := uc.validation.ValidateBusinessRules(workflow)
	if !rules.Valid {
		return nil, errs.ErrInvalidWorkflowData.Withf("Workflow business rules validation failed: %s", rules.ErrorMessage())
	}
	if rules.HasWarnings() {
		uc.logger.Warn("Workflow business rules warnings", "name", name, "warnings", rules.WarningMessage())
	}

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := uc.workflows.FindByName(txCtx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.ErrWorkflowAlreadyExists.Withf("Workflow with name '%s' already exists", name)
		}

		creator, err := uc.users.Lookup(txCtx, cmd.CreatorID)
		if err != nil {
			return err
		}

		if err := uc.workflows.Create(txCtx, workflow); err != nil {
			return err
		}
		workflow.Creator = creator
		return nil
	})
	if err != nil {
		uc.logger.Error("Failed to create workflow", "name", name, "error", err)
		return nil, err
	}

	workflow.RecordCreated()
	uc.publisher.Publish(ctx, workflow.PullEvents()...)

	uc.logger.Info("Workflow created", "workflow_id", workflow.ID, "name", workflow.Name)
	return NewWorkflowResult(workflow), nil
}
