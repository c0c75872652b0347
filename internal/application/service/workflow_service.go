package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/usecase"
	"github.com/ukoquique-proves/JavaFlow/internal/application/validation"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

// CancelReason is passed to the engine when a user cancels an execution
const CancelReason = "Cancelled by user"

// WorkflowService is the orchestration facade used by the REST and bot adapters.
// It adds caching, queries and execution status handling on top of the use cases.
type WorkflowService interface {
	CreateWorkflow(ctx context.Context, cmd usecase.CreateWorkflowCommand) (*usecase.WorkflowResult, error)
	ActivateWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error)
	DeactivateWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error)
	ArchiveWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error)
	DeleteWorkflow(ctx context.Context, id int64) error
	ExecuteWorkflow(ctx context.Context, cmd usecase.ExecuteWorkflowCommand) (*usecase.WorkflowExecutionResult, error)

	GetWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error)
	ListWorkflows(ctx context.Context) ([]*usecase.WorkflowResult, error)
	ListWorkflowsWithCreator(ctx context.Context) ([]*usecase.WorkflowResult, error)
	ListWorkflowsWithExecutions(ctx context.Context) ([]*usecase.WorkflowResult, error)
	ListWorkflowsByUser(ctx context.Context, userID int64) ([]*usecase.WorkflowResult, error)
	ListWorkflowsByStatus(ctx context.Context, status entity.WorkflowStatus) ([]*usecase.WorkflowResult, error)

	GetExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error)
	GetExecutionByProcessInstanceID(ctx context.Context, processInstanceID string) (*usecase.WorkflowExecutionResult, error)
	ListExecutionsByWorkflow(ctx context.Context, workflowID int64) ([]*usecase.WorkflowExecutionResult, error)
	ListRecentExecutions(ctx context.Context, hours int) ([]*usecase.WorkflowExecutionResult, error)
	CountExecutionsByStatus(ctx context.Context) (map[entity.ExecutionStatus]int64, error)

	CancelExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error)
	SuspendExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error)
	ResumeExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error)

	// UpdateExecutionStatus applies a status reported by the process engine
	UpdateExecutionStatus(ctx context.Context, processInstanceID string, status entity.ExecutionStatus, errorMessage string) (*usecase.WorkflowExecutionResult, error)
	// HandleLifecycle adapts engine lifecycle callbacks to UpdateExecutionStatus
	HandleLifecycle(ctx context.Context, processInstanceID string, lifecycle port.LifecycleEvent, errorMessage string)
}

// WorkflowServiceDeps holds the collaborators of the orchestration facade
type WorkflowServiceDeps struct {
	UseCases   usecase.Dependencies
	Validation validation.Service
	Cache      port.Cache
	Metrics    port.MetricsRecorder
	Logger     Logger
}

type workflowServiceImpl struct {
	create   *usecase.CreateWorkflowUseCase
	activate *usecase.ActivateWorkflowUseCase
	execute  *usecase.ExecuteWorkflowUseCase

	workflows  port.WorkflowRepository
	executions port.ExecutionRepository
	engine     port.ProcessEngine
	txManager  port.TransactionManager
	publisher  port.EventPublisher
	validation validation.Service
	cache      port.Cache
	metrics    port.MetricsRecorder
	logger     Logger

	loads      singleflight.Group
	cacheMu    sync.RWMutex
	generation atomic.Uint64
	execLocks  *keyedMutex
}

// NewWorkflowService creates the orchestration facade
func NewWorkflowService(deps WorkflowServiceDeps) WorkflowService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = port.NopMetrics{}
	}

	return &workflowServiceImpl{
		create:     usecase.NewCreateWorkflowUseCase(deps.UseCases, deps.Validation),
		activate:   usecase.NewActivateWorkflowUseCase(deps.UseCases),
		execute:    usecase.NewExecuteWorkflowUseCase(deps.UseCases),
		workflows:  deps.UseCases.Workflows,
		executions: deps.UseCases.Executions,
		engine:     deps.UseCases.Engine,
		txManager:  deps.UseCases.TxManager,
		publisher:  deps.UseCases.Publisher,
		validation: deps.Validation,
		cache:      deps.Cache,
		metrics:    metrics,
		logger:     deps.Logger,
		execLocks:  newKeyedMutex(),
	}
}

// =============================================================================
// Workflow mutations
// =============================================================================

func (s *workflowServiceImpl) CreateWorkflow(ctx context.Context, cmd usecase.CreateWorkflowCommand) (*usecase.WorkflowResult, error) {
	res, err := s.create.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.evictAll(ctx)
	return res, nil
}

func (s *workflowServiceImpl) ActivateWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error) {
	res, err := s.activate.Execute(ctx, usecase.ActivateWorkflowCommand{WorkflowID: id})
	if err != nil {
		return nil, err
	}
	s.evict(ctx, res.ID, res.CreatedByID)
	return res, nil
}

func (s *workflowServiceImpl) DeactivateWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error) {
	s.logger.Info("Deactivating workflow", "workflow_id", id)
	return s.mutateWorkflow(ctx, id, (*entity.Workflow).Deactivate)
}

func (s *workflowServiceImpl) ArchiveWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error) {
	s.logger.Info("Archiving workflow", "workflow_id", id)
	return s.mutateWorkflow(ctx, id, (*entity.Workflow).Archive)
}

func (s *workflowServiceImpl) DeleteWorkflow(ctx context.Context, id int64) error {
	s.logger.Info("Deleting workflow", "workflow_id", id)

	var deleted *entity.Workflow
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		workflow, err := s.workflows.FindWithDetailsByID(txCtx, id)
		if err != nil {
			return err
		}
		if workflow == nil {
			return errs.ErrWorkflowNotFound.Withf("Workflow not found with ID: %d", id)
		}

		check := s.validation.ValidateDeletion(workflow)
		if !check.Valid {
			return errs.ErrWorkflowDeletionBlocked.Withf("%s", check.ErrorMessage())
		}
		if check.HasWarnings() {
			s.logger.Warn("Workflow deletion warnings", "workflow_id", id, "warnings", check.WarningMessage())
		}

		if err := s.workflows.Delete(txCtx, id); err != nil {
			return err
		}
		deleted = workflow
		return nil
	})
	if err != nil {
		return err
	}

	s.evict(ctx, deleted.ID, deleted.CreatedBy)
	deleted.RecordDeleted()
	s.publisher.Publish(ctx, deleted.PullEvents()...)
	return nil
}

func (s *workflowServiceImpl) ExecuteWorkflow(ctx context.Context, cmd usecase.ExecuteWorkflowCommand) (*usecase.WorkflowExecutionResult, error) {
	res, err := s.execute.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.evictExecutionViews(ctx, res.WorkflowID)
	return res, nil
}

func (s *workflowServiceImpl) mutateWorkflow(ctx context.Context, id int64, mutate func(*entity.Workflow) error) (*usecase.WorkflowResult, error) {
	var workflow *entity.Workflow
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		w, err := s.workflows.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return errs.ErrWorkflowNotFound.Withf("Workflow not found with ID: %d", id)
		}
		if err := mutate(w); err != nil {
			return err
		}
		if err := s.workflows.Update(txCtx, w); err != nil {
			return err
		}
		workflow = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, workflow.ID, workflow.CreatedBy)
	s.publisher.Publish(ctx, workflow.PullEvents()...)
	return usecase.NewWorkflowResult(workflow), nil
}

// =============================================================================
// Workflow queries
// =============================================================================

func (s *workflowServiceImpl) GetWorkflow(ctx context.Context, id int64) (*usecase.WorkflowResult, error) {
	return readThrough(ctx, s, workflowKey(id), func(ctx context.Context) (*usecase.WorkflowResult, error) {
		w, err := s.workflows.FindWithDetailsByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, errs.ErrWorkflowNotFound.Withf("Workflow not found with ID: %d", id)
		}
		return usecase.NewWorkflowResult(w), nil
	})
}

func (s *workflowServiceImpl) ListWorkflows(ctx context.Context) ([]*usecase.WorkflowResult, error) {
	return s.cachedList(ctx, keyAllWorkflows, s.workflows.FindAll)
}

func (s *workflowServiceImpl) ListWorkflowsWithCreator(ctx context.Context) ([]*usecase.WorkflowResult, error) {
	return s.cachedList(ctx, keyAllWorkflowsWithCreator, s.workflows.FindAllWithCreator)
}

func (s *workflowServiceImpl) ListWorkflowsWithExecutions(ctx context.Context) ([]*usecase.WorkflowResult, error) {
	return s.cachedList(ctx, keyAllWorkflowsWithExecs, s.workflows.FindAllWithExecutions)
}

func (s *workflowServiceImpl) ListWorkflowsByUser(ctx context.Context, userID int64) ([]*usecase.WorkflowResult, error) {
	return s.cachedList(ctx, workflowsByUserKey(userID), func(ctx context.Context) ([]*entity.Workflow, error) {
		return s.workflows.FindByCreator(ctx, userID)
	})
}

func (s *workflowServiceImpl) ListWorkflowsByStatus(ctx context.Context, status entity.WorkflowStatus) ([]*usecase.WorkflowResult, error) {
	if !status.IsValid() {
		return nil, errs.ErrInvalidCommand.Withf("invalid workflow status: %s", status)
	}
	workflows, err := s.workflows.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return usecase.NewWorkflowResults(workflows), nil
}

func (s *workflowServiceImpl) cachedList(ctx context.Context, key string, load func(context.Context) ([]*entity.Workflow, error)) ([]*usecase.WorkflowResult, error) {
	return readThrough(ctx, s, key, func(ctx context.Context) ([]*usecase.WorkflowResult, error) {
		workflows, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return usecase.NewWorkflowResults(workflows), nil
	})
}

// =============================================================================
// Execution queries
// =============================================================================

func (s *workflowServiceImpl) GetExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error) {
	e, err := s.findExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	return usecase.NewWorkflowExecutionResult(e), nil
}

func (s *workflowServiceImpl) GetExecutionByProcessInstanceID(ctx context.Context, processInstanceID string) (*usecase.WorkflowExecutionResult, error) {
	e, err := s.findExecutionByInstance(ctx, processInstanceID)
	if err != nil {
		return nil, err
	}
	return usecase.NewWorkflowExecutionResult(e), nil
}

func (s *workflowServiceImpl) ListExecutionsByWorkflow(ctx context.Context, workflowID int64) ([]*usecase.WorkflowExecutionResult, error) {
	executions, err := s.executions.FindByWorkflowID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return usecase.NewWorkflowExecutionResults(executions), nil
}

func (s *workflowServiceImpl) ListRecentExecutions(ctx context.Context, hours int) ([]*usecase.WorkflowExecutionResult, error) {
	if hours <= 0 {
		return nil, errs.ErrInvalidCommand.Withf("hours must be greater than 0")
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	executions, err := s.executions.FindStartedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	return usecase.NewWorkflowExecutionResults(executions), nil
}

func (s *workflowServiceImpl) CountExecutionsByStatus(ctx context.Context) (map[entity.ExecutionStatus]int64, error) {
	return s.executions.CountByStatus(ctx)
}

// =============================================================================
// Execution mutations
// =============================================================================

func (s *workflowServiceImpl) CancelExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error) {
	s.logger.Info("Cancelling execution", "execution_id", id)
	return s.mutateExecution(ctx, id, func(txCtx context.Context, e *entity.WorkflowExecution) (bool, error) {
		if err := e.Cancel(); err != nil {
			return false, err
		}
		if err := s.engine.DeleteInstance(txCtx, e.ProcessInstanceID, CancelReason); err != nil {
			return false, errs.ErrEngine.Withf("Failed to cancel process instance %s: %v", e.ProcessInstanceID, err).Wrap(err)
		}
		return true, nil
	})
}

func (s *workflowServiceImpl) SuspendExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error) {
	return s.mutateExecution(ctx, id, func(_ context.Context, e *entity.WorkflowExecution) (bool, error) {
		return true, e.Suspend()
	})
}

func (s *workflowServiceImpl) ResumeExecution(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error) {
	return s.mutateExecution(ctx, id, func(_ context.Context, e *entity.WorkflowExecution) (bool, error) {
		return true, e.Resume()
	})
}

func (s *workflowServiceImpl) UpdateExecutionStatus(ctx context.Context, processInstanceID string, status entity.ExecutionStatus, errorMessage string) (*usecase.WorkflowExecutionResult, error) {
	e, err := s.findExecutionByInstance(ctx, processInstanceID)
	if err != nil {
		return nil, err
	}

	return s.mutateExecution(ctx, e.ID, func(_ context.Context, fresh *entity.WorkflowExecution) (bool, error) {
		changed, err := fresh.ApplyStatus(status, errorMessage)
		if err != nil {
			s.logger.Warn("Rejected execution status update",
				"process_instance_id", processInstanceID,
				"current_status", fresh.Status,
				"reported_status", status,
				"error", err,
			)
			return false, err
		}
		if !changed {
			s.logger.Info("Execution status already applied", "process_instance_id", processInstanceID, "status", status)
		}
		return changed, nil
	})
}

func (s *workflowServiceImpl) HandleLifecycle(ctx context.Context, processInstanceID string, lifecycle port.LifecycleEvent, errorMessage string) {
	status, ok := lifecycle.ExecutionStatus()
	if !ok {
		s.logger.Warn("Ignoring unknown engine lifecycle event", "process_instance_id", processInstanceID, "lifecycle", lifecycle)
		return
	}

	if _, err := s.UpdateExecutionStatus(ctx, processInstanceID, status, errorMessage); err != nil {
		s.logger.Error("Failed to apply engine lifecycle event",
			"process_instance_id", processInstanceID,
			"lifecycle", lifecycle,
			"error", err,
		)
	}
}

// mutateExecution serializes all status changes of one execution.
// The row is re-read under the lock and written with a compare-and-set on its previous status.
func (s *workflowServiceImpl) mutateExecution(
	ctx context.Context,
	id int64,
	mutate func(txCtx context.Context, e *entity.WorkflowExecution) (bool, error),
) (*usecase.WorkflowExecutionResult, error) {
	unlock := s.execLocks.Lock(id)
	defer unlock()

	var execution *entity.WorkflowExecution
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		e, err := s.findExecution(txCtx, id)
		if err != nil {
			return err
		}

		expected := e.Status
		changed, err := mutate(txCtx, e)
		if err != nil {
			return err
		}
		if changed {
			if err := s.executions.UpdateStatus(txCtx, e, expected); err != nil {
				return err
			}
		}
		execution = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evictExecutionViews(ctx, execution.WorkflowID)
	s.publisher.Publish(ctx, execution.PullEvents()...)
	return usecase.NewWorkflowExecutionResult(execution), nil
}

func (s *workflowServiceImpl) findExecution(ctx context.Context, id int64) (*entity.WorkflowExecution, error) {
	e, err := s.executions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errs.ErrExecutionNotFound.Withf("Workflow execution not found with ID: %d", id)
	}
	return e, nil
}

func (s *workflowServiceImpl) findExecutionByInstance(ctx context.Context, processInstanceID string) (*entity.WorkflowExecution, error) {
	e, err := s.executions.FindByProcessInstanceID(ctx, processInstanceID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errs.ErrExecutionNotFound.Withf("Workflow execution not found for process instance: %s", processInstanceID)
	}
	return e, nil
}
