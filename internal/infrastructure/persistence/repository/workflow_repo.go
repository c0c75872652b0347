package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/persistence/sqlite"
)

const workflowColumns = `
	w.id, w.name, w.description, w.bpmn_xml, w.version, w.status,
	w.created_by, w.created_at, w.updated_at`

const workflowWithCreatorColumns = workflowColumns + `,
	u.id, u.username, u.email, u.full_name, u.active, u.created_at, u.updated_at`

// WorkflowRepository implements port.WorkflowRepository
type WorkflowRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *sqlite.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a workflow
func (r *WorkflowRepository) Create(ctx context.Context, w *entity.Workflow) error {
	query := `
		INSERT INTO workflows (
			name, description, bpmn_xml, version, status, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		w.Name,
		w.Description,
		w.Definition,
		w.Version,
		w.Status,
		w.CreatedBy,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return errs.ErrWorkflowAlreadyExists.Withf("Workflow with name '%s' already exists", w.Name)
		}
		r.logger.Error("Failed to create workflow", zap.String("name", w.Name), zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	w.ID = id
	return nil
}

// Update writes the mutable fields of a workflow
func (r *WorkflowRepository) Update(ctx context.Context, w *entity.Workflow) error {
	query := `
		UPDATE workflows
		SET name = ?, description = ?, bpmn_xml = ?, version = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		w.Name,
		w.Description,
		w.Definition,
		w.Version,
		w.Status,
		w.UpdatedAt,
		w.ID,
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return errs.ErrWorkflowAlreadyExists.Withf("Workflow with name '%s' already exists", w.Name)
		}
		r.logger.Error("Failed to update workflow", zap.Int64("id", w.ID), zap.Error(err))
		return fmt.Errorf("failed to update workflow: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errs.ErrWorkflowNotFound.Withf("Workflow not found with ID: %d", w.ID)
	}
	return nil
}

// Delete removes a workflow; its executions go with it
func (r *WorkflowRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete workflow", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	return nil
}

// FindByID retrieves a workflow without relations
func (r *WorkflowRepository) FindByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows w WHERE w.id = ?`
	return r.queryOne(ctx, query, false, id)
}

// FindWithDetailsByID retrieves a workflow with its creator and executions
func (r *WorkflowRepository) FindWithDetailsByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	query := `SELECT ` + workflowWithCreatorColumns + `
		FROM workflows w LEFT JOIN users u ON u.id = w.created_by
		WHERE w.id = ?`

	w, err := r.queryOne(ctx, query, true, id)
	if err != nil || w == nil {
		return w, err
	}

	executions, err := queryExecutions(ctx, r.db.Executor(ctx), `WHERE e.workflow_id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to load workflow executions", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	w.Executions = executions
	return w, nil
}

// FindByName retrieves a workflow by its case-insensitive name
func (r *WorkflowRepository) FindByName(ctx context.Context, name string) (*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows w WHERE w.name = ? COLLATE NOCASE`
	return r.queryOne(ctx, query, false, name)
}

// FindAll lists workflows without relations
func (r *WorkflowRepository) FindAll(ctx context.Context) ([]*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows w ORDER BY w.id`
	return r.queryMany(ctx, query, false)
}

// FindAllWithCreator lists workflows with their creator
func (r *WorkflowRepository) FindAllWithCreator(ctx context.Context) ([]*entity.Workflow, error) {
	query := `SELECT ` + workflowWithCreatorColumns + `
		FROM workflows w LEFT JOIN users u ON u.id = w.created_by
		ORDER BY w.id`
	return r.queryMany(ctx, query, true)
}

// FindAllWithExecutions lists workflows with their creator and executions in two queries
func (r *WorkflowRepository) FindAllWithExecutions(ctx context.Context) ([]*entity.Workflow, error) {
	workflows, err := r.FindAllWithCreator(ctx)
	if err != nil || len(workflows) == 0 {
		return workflows, err
	}

	executions, err := queryExecutions(ctx, r.db.Executor(ctx), ``)
	if err != nil {
		r.logger.Error("Failed to load executions", zap.Error(err))
		return nil, err
	}

	byWorkflow := make(map[int64]*entity.Workflow, len(workflows))
	for _, w := range workflows {
		byWorkflow[w.ID] = w
	}
	for _, e := range executions {
		if w, ok := byWorkflow[e.WorkflowID]; ok {
			w.Executions = append(w.Executions, e)
		}
	}
	return workflows, nil
}

// FindByStatus lists workflows in a status
func (r *WorkflowRepository) FindByStatus(ctx context.Context, status entity.WorkflowStatus) ([]*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows w WHERE w.status = ? ORDER BY w.id`
	return r.queryMany(ctx, query, false, status)
}

// FindByCreator lists workflows created by a user
func (r *WorkflowRepository) FindByCreator(ctx context.Context, userID int64) ([]*entity.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows w WHERE w.created_by = ? ORDER BY w.id`
	return r.queryMany(ctx, query, false, userID)
}

func (r *WorkflowRepository) queryOne(ctx context.Context, query string, withCreator bool, args ...interface{}) (*entity.Workflow, error) {
	w, err := scanWorkflow(r.db.Executor(ctx).QueryRowContext(ctx, query, args...), withCreator)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return w, nil
}

func (r *WorkflowRepository) queryMany(ctx context.Context, query string, withCreator bool, args ...interface{}) ([]*entity.Workflow, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list workflows", zap.Error(err))
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*entity.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows, withCreator)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkflow(s scanner, withCreator bool) (*entity.Workflow, error) {
	var w entity.Workflow
	dest := []interface{}{
		&w.ID,
		&w.Name,
		&w.Description,
		&w.Definition,
		&w.Version,
		&w.Status,
		&w.CreatedBy,
		&w.CreatedAt,
		&w.UpdatedAt,
	}

	var creator nullableUser
	if withCreator {
		dest = append(dest, creator.dest()...)
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if withCreator {
		w.Creator = creator.user()
	}
	return &w, nil
}

// nullableUser receives the user columns of a LEFT JOIN
type nullableUser struct {
	id        sql.NullInt64
	username  sql.NullString
	email     sql.NullString
	fullName  sql.NullString
	active    sql.NullBool
	createdAt sql.NullTime
	updatedAt sql.NullTime
}

func (n *nullableUser) dest() []interface{} {
	return []interface{}{&n.id, &n.username, &n.email, &n.fullName, &n.active, &n.createdAt, &n.updatedAt}
}

func (n *nullableUser) user() *entity.User {
	if !n.id.Valid {
		return nil
	}
	return &entity.User{
		ID:        n.id.Int64,
		Username:  n.username.String,
		Email:     n.email.String,
		FullName:  n.fullName.String,
		Active:    n.active.Bool,
		CreatedAt: n.createdAt.Time,
		UpdatedAt: n.updatedAt.Time,
	}
}
