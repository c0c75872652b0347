package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/persistence/sqlite"
)

const executionSelect = `
	SELECT e.id, e.workflow_id, w.name, e.process_instance_id, e.status,
		e.started_at, e.ended_at, e.started_by, COALESCE(u.username, ''),
		COALESCE(e.error_message, ''), e.variables
	FROM workflow_executions e
	JOIN workflows w ON w.id = e.workflow_id
	LEFT JOIN users u ON u.id = e.started_by
`

// ExecutionRepository implements port.ExecutionRepository
type ExecutionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(db *sqlite.DB, logger *zap.Logger) port.ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an execution
func (r *ExecutionRepository) Create(ctx context.Context, e *entity.WorkflowExecution) error {
	query := `
		INSERT INTO workflow_executions (
			workflow_id, process_instance_id, status, started_at, ended_at,
			started_by, error_message, variables
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		e.WorkflowID,
		e.ProcessInstanceID,
		e.Status,
		e.StartedAt,
		nullTime(e.EndedAt),
		nullInt64(e.StartedBy),
		nullString(e.ErrorMessage),
		e.Variables,
	)
	if err != nil {
		r.logger.Error("Failed to create execution",
			zap.Int64("workflow_id", e.WorkflowID),
			zap.String("process_instance_id", e.ProcessInstanceID),
			zap.Error(err))
		return fmt.Errorf("failed to create execution: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	return nil
}

// UpdateStatus writes status, ended_at and error_message when the stored status still equals expected
func (r *ExecutionRepository) UpdateStatus(ctx context.Context, e *entity.WorkflowExecution, expected entity.ExecutionStatus) error {
	query := `
		UPDATE workflow_executions
		SET status = ?, ended_at = ?, error_message = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		e.Status,
		nullTime(e.EndedAt),
		nullString(e.ErrorMessage),
		e.ID,
		expected,
	)
	if err != nil {
		r.logger.Error("Failed to update execution status", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update execution status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return errs.ErrExecutionConflict.Withf("Execution %d is no longer %s", e.ID, expected)
	}
	return nil
}

// FindByID retrieves an execution
func (r *ExecutionRepository) FindByID(ctx context.Context, id int64) (*entity.WorkflowExecution, error) {
	return r.queryOne(ctx, `WHERE e.id = ?`, id)
}

// FindByProcessInstanceID retrieves the execution bound to an engine instance
func (r *ExecutionRepository) FindByProcessInstanceID(ctx context.Context, processInstanceID string) (*entity.WorkflowExecution, error) {
	return r.queryOne(ctx, `WHERE e.process_instance_id = ?`, processInstanceID)
}

// FindByWorkflowID lists the executions of a workflow
func (r *ExecutionRepository) FindByWorkflowID(ctx context.Context, workflowID int64) ([]*entity.WorkflowExecution, error) {
	return r.queryMany(ctx, `WHERE e.workflow_id = ?`, workflowID)
}

// FindByStatus lists executions in a status
func (r *ExecutionRepository) FindByStatus(ctx context.Context, status entity.ExecutionStatus) ([]*entity.WorkflowExecution, error) {
	return r.queryMany(ctx, `WHERE e.status = ?`, status)
}

// FindStartedSince lists executions started at or after since
func (r *ExecutionRepository) FindStartedSince(ctx context.Context, since time.Time) ([]*entity.WorkflowExecution, error) {
	return r.queryMany(ctx, `WHERE e.started_at >= ?`, since)
}

// CountByStatus returns the number of executions per status
func (r *ExecutionRepository) CountByStatus(ctx context.Context) (map[entity.ExecutionStatus]int64, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM workflow_executions GROUP BY status`)
	if err != nil {
		r.logger.Error("Failed to count executions", zap.Error(err))
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.ExecutionStatus]int64)
	for rows.Next() {
		var status entity.ExecutionStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan execution count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *ExecutionRepository) queryOne(ctx context.Context, where string, args ...interface{}) (*entity.WorkflowExecution, error) {
	e, err := scanExecution(r.db.Executor(ctx).QueryRowContext(ctx, executionSelect+where, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get execution", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return e, nil
}

func (r *ExecutionRepository) queryMany(ctx context.Context, where string, args ...interface{}) ([]*entity.WorkflowExecution, error) {
	executions, err := queryExecutions(ctx, r.db.Executor(ctx), where, args...)
	if err != nil {
		r.logger.Error("Failed to list executions", zap.Error(err))
		return nil, err
	}
	return executions, nil
}

func queryExecutions(ctx context.Context, exec sqlite.Executor, where string, args ...interface{}) ([]*entity.WorkflowExecution, error) {
	rows, err := exec.QueryContext(ctx, executionSelect+where+` ORDER BY e.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []*entity.WorkflowExecution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

func scanExecution(s scanner) (*entity.WorkflowExecution, error) {
	var e entity.WorkflowExecution
	var endedAt sql.NullTime
	var startedBy sql.NullInt64

	err := s.Scan(
		&e.ID,
		&e.WorkflowID,
		&e.WorkflowName,
		&e.ProcessInstanceID,
		&e.Status,
		&e.StartedAt,
		&endedAt,
		&startedBy,
		&e.StartedByUsername,
		&e.ErrorMessage,
		&e.Variables,
	)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		e.EndedAt = &endedAt.Time
	}
	if startedBy.Valid {
		e.StartedBy = &startedBy.Int64
	}
	return &e, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
