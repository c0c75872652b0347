package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

// WhatsAppSender logs outbound messages; no WhatsApp transport is wired yet
type WhatsAppSender struct {
	logger *zap.Logger
}

func NewWhatsAppSender(logger *zap.Logger) *WhatsAppSender {
	return &WhatsAppSender{logger: logger.With(zap.String("component", "whatsapp_sender"))}
}

func (s *WhatsAppSender) Type() entity.BotType { return entity.BotTypeWhatsApp }

func (s *WhatsAppSender) SendMessage(ctx context.Context, bot *entity.BotConfiguration, chatID, text string) error {
	s.logger.Warn("WhatsApp transport not configured, message not delivered",
		zap.Int64("bot_id", bot.ID),
		zap.String("chat_id", chatID),
		zap.Int("length", len(text)))
	return nil
}

var _ port.BotSender = (*WhatsAppSender)(nil)
