package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/persistence/sqlite"
)

func newMockDB(t *testing.T) (*sqlite.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return sqlite.NewDB(sqlDB, zap.NewNop()), mock
}

var errDisk = errors.New("disk I/O error")

func TestWorkflowRepository_CreateMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO workflows").
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

	err := repo.Create(context.Background(), entity.NewWorkflow("Invoice Approval", "", "<definitions/>", 1))

	require.ErrorIs(t, err, errs.ErrWorkflowAlreadyExists)
	assert.Contains(t, err.Error(), "Invoice Approval")
}

func TestWorkflowRepository_CreateWrapsOtherErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO workflows").WillReturnError(errDisk)

	err := repo.Create(context.Background(), entity.NewWorkflow("Invoice Approval", "", "<definitions/>", 1))

	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, errs.KindInternal, errs.KindOf(err))
}

func TestWorkflowRepository_UpdateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())

	mock.ExpectExec("UPDATE workflows").WillReturnResult(sqlmock.NewResult(0, 0))

	w := entity.NewWorkflow("Invoice Approval", "", "<definitions/>", 1)
	w.ID = 42
	err := repo.Update(context.Background(), w)

	assert.ErrorIs(t, err, errs.ErrWorkflowNotFound)
}

func TestWorkflowRepository_FindByIDNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())

	mock.ExpectQuery("FROM workflows w WHERE w.id = ?").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w, err := repo.FindByID(context.Background(), 7)

	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestWorkflowRepository_FindAllQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())

	mock.ExpectQuery("FROM workflows w ORDER BY w.id").WillReturnError(errDisk)

	_, err := repo.FindAll(context.Background())

	assert.ErrorIs(t, err, errDisk)
}

func TestWorkflowRepository_FindByStatusScansRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "bpmn_xml", "version", "status", "created_by", "created_at", "updated_at"}).
		AddRow(1, "Invoice Approval", "", "<definitions/>", 1, "ACTIVE", 3, now, now).
		AddRow(2, "Onboarding", "new hires", "<definitions/>", 2, "ACTIVE", 3, now, now)
	mock.ExpectQuery("WHERE w.status = ?").WithArgs(entity.WorkflowStatusActive).WillReturnRows(rows)

	workflows, err := repo.FindByStatus(context.Background(), entity.WorkflowStatusActive)

	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, entity.WorkflowStatusActive, workflows[1].Status)
	assert.Equal(t, 2, workflows[1].Version)
	assert.Nil(t, workflows[0].Creator)
}

func TestExecutionRepository_UpdateStatusConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db, zap.NewNop())

	mock.ExpectExec("UPDATE workflow_executions").
		WithArgs(entity.ExecutionStatusCompleted, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(5), entity.ExecutionStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := &entity.WorkflowExecution{ID: 5, Status: entity.ExecutionStatusCompleted}
	err := repo.UpdateStatus(context.Background(), e, entity.ExecutionStatusRunning)

	assert.ErrorIs(t, err, errs.ErrExecutionConflict)
}

func TestExecutionRepository_UpdateStatusError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db, zap.NewNop())

	mock.ExpectExec("UPDATE workflow_executions").WillReturnError(errDisk)

	err := repo.UpdateStatus(context.Background(), &entity.WorkflowExecution{ID: 5}, entity.ExecutionStatusRunning)

	assert.ErrorIs(t, err, errDisk)
	assert.False(t, errs.IsConflict(err))
}

func TestExecutionRepository_CountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db, zap.NewNop())

	mock.ExpectQuery("GROUP BY status").WillReturnRows(
		sqlmock.NewRows([]string{"status", "count"}).
			AddRow("RUNNING", 3).
			AddRow("FAILED", 1),
	)

	counts, err := repo.CountByStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[entity.ExecutionStatus]int64{
		entity.ExecutionStatusRunning: 3,
		entity.ExecutionStatusFailed:  1,
	}, counts)
}

func TestExecutionRepository_ScanNullableColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExecutionRepository(db, zap.NewNop())
	started := time.Now().Add(-time.Minute)
	ended := time.Now()

	mock.ExpectQuery("WHERE e.process_instance_id = ?").WithArgs("pi-1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "workflow_id", "name", "process_instance_id", "status", "started_at", "ended_at", "started_by", "username", "error_message", "variables"}).
			AddRow(9, 1, "Invoice Approval", "pi-1", "FAILED", started, ended, nil, "", "boom", "{}"),
	)

	e, err := repo.FindByProcessInstanceID(context.Background(), "pi-1")

	require.NoError(t, err)
	require.NotNil(t, e.EndedAt)
	assert.Nil(t, e.StartedBy)
	assert.Equal(t, "boom", e.ErrorMessage)
	assert.Equal(t, entity.SystemInitiator, e.InitiatorName())
}

func TestBotRepository_FindByIDError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBotRepository(db, zap.NewNop())

	mock.ExpectQuery("FROM bot_configurations WHERE id = ?").WillReturnError(errDisk)

	_, err := repo.FindByID(context.Background(), 1)

	assert.ErrorIs(t, err, errDisk)
}

func TestMessageRepository_CreateError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO messages").WillReturnError(errDisk)

	err := repo.Create(context.Background(), &entity.Message{BotID: 1, ChatID: "c"})

	assert.ErrorIs(t, err, errDisk)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

	err := repo.Create(context.Background(), &entity.User{Username: "alice"})

	assert.ErrorIs(t, err, errs.ErrUserAlreadyExists)
}
