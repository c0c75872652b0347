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

const userColumns = `id, username, email, full_name, active, created_at, updated_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (username, email, full_name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		u.Username, u.Email, u.FullName, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return errs.ErrUserAlreadyExists.Withf("User '%s' already exists", u.Username)
		}
		r.logger.Error("Failed to create user", zap.String("username", u.Username), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	u.ID = id
	return nil
}

// FindByID retrieves a user
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindByUsername retrieves a user by case-insensitive username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
}

func (r *UserRepository) queryOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var u entity.User
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
