// Package bot holds the outbound port.BotSender adapters for each chat platform.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

// DefaultTelegramAPI is the public Bot API endpoint
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramSender sends messages via the Telegram Bot API
type TelegramSender struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewTelegramSender creates a sender. An empty baseURL uses the public API.
func NewTelegramSender(client *http.Client, baseURL string, logger *zap.Logger) *TelegramSender {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	return &TelegramSender{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(zap.String("component", "telegram_sender")),
	}
}

func (s *TelegramSender) Type() entity.BotType { return entity.BotTypeTelegram }

// SendMessage expects bot.Token to hold the decrypted token
func (s *TelegramSender) SendMessage(ctx context.Context, bot *entity.BotConfiguration, chatID, text string) error {
	if bot.Token == "" {
		return fmt.Errorf("telegram bot %d has no token", bot.ID)
	}

	body, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, bot.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// the request URL embeds the token; never surface it
		return fmt.Errorf("telegram send to chat %s failed", chatID)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}

	s.logger.Info("Message sent to Telegram chat", zap.Int64("bot_id", bot.ID), zap.String("chat_id", chatID))
	return nil
}

var _ port.BotSender = (*TelegramSender)(nil)
