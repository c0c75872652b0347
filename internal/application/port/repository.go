package port

import (
	"context"
	"time"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

// Lookups return (nil, nil) when the row does not exist; callers decide which not-found error applies.

// WorkflowRepository defines persistence operations for Workflow
type WorkflowRepository interface {
	// Create inserts the workflow and assigns its ID.
	// A duplicate name fails with errs.ErrWorkflowAlreadyExists.
	Create(ctx context.Context, w *entity.Workflow) error
	Update(ctx context.Context, w *entity.Workflow) error
	Delete(ctx context.Context, id int64) error

	FindByID(ctx context.Context, id int64) (*entity.Workflow, error)
	// FindWithDetailsByID loads the creator and every execution in one round-trip
	FindWithDetailsByID(ctx context.Context, id int64) (*entity.Workflow, error)
	FindByName(ctx context.Context, name string) (*entity.Workflow, error)

	FindAll(ctx context.Context) ([]*entity.Workflow, error)
	FindAllWithCreator(ctx context.Context) ([]*entity.Workflow, error)
	FindAllWithExecutions(ctx context.Context) ([]*entity.Workflow, error)
	FindByStatus(ctx context.Context, status entity.WorkflowStatus) ([]*entity.Workflow, error)
	FindByCreator(ctx context.Context, userID int64) ([]*entity.Workflow, error)
}

// ExecutionRepository defines persistence operations for WorkflowExecution
type ExecutionRepository interface {
	Create(ctx context.Context, e *entity.WorkflowExecution) error
	// UpdateStatus writes the execution's status fields only if the stored status still equals expected.
	// A lost race fails with errs.ErrExecutionConflict.
	UpdateStatus(ctx context.Context, e *entity.WorkflowExecution, expected entity.ExecutionStatus) error

	FindByID(ctx context.Context, id int64) (*entity.WorkflowExecution, error)
	FindByProcessInstanceID(ctx context.Context, processInstanceID string) (*entity.WorkflowExecution, error)
	FindByWorkflowID(ctx context.Context, workflowID int64) ([]*entity.WorkflowExecution, error)
	FindByStatus(ctx context.Context, status entity.ExecutionStatus) ([]*entity.WorkflowExecution, error)
	FindStartedSince(ctx context.Context, since time.Time) ([]*entity.WorkflowExecution, error)
	CountByStatus(ctx context.Context) (map[entity.ExecutionStatus]int64, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

// BotRepository defines persistence operations for BotConfiguration
type BotRepository interface {
	Create(ctx context.Context, b *entity.BotConfiguration) error
	Update(ctx context.Context, b *entity.BotConfiguration) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*entity.BotConfiguration, error)
	FindAll(ctx context.Context) ([]*entity.BotConfiguration, error)
	FindByStatus(ctx context.Context, status entity.BotStatus) ([]*entity.BotConfiguration, error)
	FindByType(ctx context.Context, botType entity.BotType) ([]*entity.BotConfiguration, error)
}

// MessageRepository defines persistence operations for bot Message
type MessageRepository interface {
	Create(ctx context.Context, m *entity.Message) error
	// FindByChatID returns newest first
	FindByChatID(ctx context.Context, chatID string) ([]*entity.Message, error)
	FindByBotID(ctx context.Context, botID int64) ([]*entity.Message, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
