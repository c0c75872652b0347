package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/infrastructure/persistence/sqlite"
)

const botColumns = `id, name, type, token, webhook_url, status, config, created_at, updated_at`

// BotRepository implements port.BotRepository
type BotRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewBotRepository creates a new bot configuration repository
func NewBotRepository(db *sqlite.DB, logger *zap.Logger) port.BotRepository {
	return &BotRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a bot configuration. Token must already be encrypted.
func (r *BotRepository) Create(ctx context.Context, b *entity.BotConfiguration) error {
	query := `
		INSERT INTO bot_configurations (
			name, type, token, webhook_url, status, config, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		b.Name, b.Type, b.Token, b.WebhookURL, b.Status, b.Config, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create bot", zap.String("name", b.Name), zap.Error(err))
		return fmt.Errorf("failed to create bot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	b.ID = id
	return nil
}

// Update writes every mutable column
func (r *BotRepository) Update(ctx context.Context, b *entity.BotConfiguration) error {
	query := `
		UPDATE bot_configurations
		SET name = ?, token = ?, webhook_url = ?, status = ?, config = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		b.Name, b.Token, b.WebhookURL, b.Status, b.Config, b.UpdatedAt, b.ID)
	if err != nil {
		r.logger.Error("Failed to update bot", zap.Int64("id", b.ID), zap.Error(err))
		return fmt.Errorf("failed to update bot: %w", err)
	}
	return nil
}

// Delete removes a bot and its messages
func (r *BotRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM bot_configurations WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete bot", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete bot: %w", err)
	}
	return nil
}

// FindByID retrieves a bot configuration
func (r *BotRepository) FindByID(ctx context.Context, id int64) (*entity.BotConfiguration, error) {
	b, err := scanBot(r.db.Executor(ctx).QueryRowContext(ctx, `SELECT `+botColumns+` FROM bot_configurations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get bot", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}
	return b, nil
}

// FindAll lists every bot
func (r *BotRepository) FindAll(ctx context.Context) ([]*entity.BotConfiguration, error) {
	return r.queryMany(ctx, `SELECT `+botColumns+` FROM bot_configurations ORDER BY id`)
}

// FindByStatus lists bots in a status
func (r *BotRepository) FindByStatus(ctx context.Context, status entity.BotStatus) ([]*entity.BotConfiguration, error) {
	return r.queryMany(ctx, `SELECT `+botColumns+` FROM bot_configurations WHERE status = ? ORDER BY id`, status)
}

// FindByType lists bots for one platform
func (r *BotRepository) FindByType(ctx context.Context, botType entity.BotType) ([]*entity.BotConfiguration, error) {
	return r.queryMany(ctx, `SELECT `+botColumns+` FROM bot_configurations WHERE type = ? ORDER BY id`, botType)
}

func (r *BotRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.BotConfiguration, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list bots", zap.Error(err))
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}
	defer rows.Close()

	var bots []*entity.BotConfiguration
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bot: %w", err)
		}
		bots = append(bots, b)
	}
	return bots, rows.Err()
}

func scanBot(s scanner) (*entity.BotConfiguration, error) {
	var b entity.BotConfiguration
	err := s.Scan(
		&b.ID,
		&b.Name,
		&b.Type,
		&b.Token,
		&b.WebhookURL,
		&b.Status,
		&b.Config,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
