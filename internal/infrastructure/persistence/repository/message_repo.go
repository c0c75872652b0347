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

const messageColumns = `
	id, bot_id, external_id, chat_id, user_id, direction, content,
	message_type, metadata, workflow_execution_id, created_at`

// MessageRepository implements port.MessageRepository
type MessageRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlite.DB, logger *zap.Logger) port.MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a chat message
func (r *MessageRepository) Create(ctx context.Context, m *entity.Message) error {
	query := `
		INSERT INTO messages (
			bot_id, external_id, chat_id, user_id, direction, content,
			message_type, metadata, workflow_execution_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		m.BotID,
		m.ExternalID,
		m.ChatID,
		m.UserID,
		m.Direction,
		m.Content,
		m.MessageType,
		m.Metadata,
		nullInt64(m.WorkflowExecutionID),
		m.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create message", zap.Int64("bot_id", m.BotID), zap.String("chat_id", m.ChatID), zap.Error(err))
		return fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	m.ID = id
	return nil
}

// FindByChatID lists a chat's messages, newest first
func (r *MessageRepository) FindByChatID(ctx context.Context, chatID string) ([]*entity.Message, error) {
	return r.queryMany(ctx, `SELECT `+messageColumns+` FROM messages WHERE chat_id = ? ORDER BY created_at DESC, id DESC`, chatID)
}

// FindByBotID lists a bot's messages, newest first
func (r *MessageRepository) FindByBotID(ctx context.Context, botID int64) ([]*entity.Message, error) {
	return r.queryMany(ctx, `SELECT `+messageColumns+` FROM messages WHERE bot_id = ? ORDER BY created_at DESC, id DESC`, botID)
}

func (r *MessageRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Message, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list messages", zap.Error(err))
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.Message
	for rows.Next() {
		var m entity.Message
		var executionID sql.NullInt64
		err := rows.Scan(
			&m.ID,
			&m.BotID,
			&m.ExternalID,
			&m.ChatID,
			&m.UserID,
			&m.Direction,
			&m.Content,
			&m.MessageType,
			&m.Metadata,
			&executionID,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if executionID.Valid {
			m.WorkflowExecutionID = &executionID.Int64
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
