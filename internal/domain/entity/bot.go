package entity

import (
	"time"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// BotType identifies the chat platform a bot is attached to
type BotType string

const (
	BotTypeTelegram BotType = "TELEGRAM"
	BotTypeWhatsApp BotType = "WHATSAPP"
)

func (t BotType) IsValid() bool {
	return t == BotTypeTelegram || t == BotTypeWhatsApp
}

func (t BotType) String() string {
	return string(t)
}

// BotStatus is the operational state of a bot
type BotStatus string

const (
	BotStatusActive   BotStatus = "ACTIVE"
	BotStatusInactive BotStatus = "INACTIVE"
	BotStatusError    BotStatus = "ERROR"
)

func (s BotStatus) String() string {
	return string(s)
}

// BotConfiguration holds a bot's credentials and settings.
// Token is stored encrypted; callers decrypt through the secret cipher.
type BotConfiguration struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       BotType   `json:"type"`
	Token      string    `json:"-"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	Status     BotStatus `json:"status"`
	Config     string    `json:"config,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (b *BotConfiguration) IsActive() bool {
	return b.Status == BotStatusActive
}

// MessageDirection tells whether a message came from or went to the chat platform
type MessageDirection string

const (
	MessageDirectionInbound  MessageDirection = "INBOUND"
	MessageDirectionOutbound MessageDirection = "OUTBOUND"
)

// MessageType is the content kind of a chat message
type MessageType string

const (
	MessageTypeText     MessageType = "TEXT"
	MessageTypeImage    MessageType = "IMAGE"
	MessageTypeVideo    MessageType = "VIDEO"
	MessageTypeAudio    MessageType = "AUDIO"
	MessageTypeDocument MessageType = "DOCUMENT"
	MessageTypeLocation MessageType = "LOCATION"
	MessageTypeContact  MessageType = "CONTACT"
)

// Message is one chat message exchanged through a bot
type Message struct {
	ID                  int64            `json:"id"`
	BotID               int64            `json:"bot_id"`
	ExternalID          string           `json:"external_id,omitempty"`
	ChatID              string           `json:"chat_id"`
	UserID              string           `json:"user_id,omitempty"`
	Direction           MessageDirection `json:"direction"`
	Content             string           `json:"content"`
	MessageType         MessageType      `json:"message_type"`
	Metadata            string           `json:"metadata,omitempty"`
	WorkflowExecutionID *int64           `json:"workflow_execution_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// IsCommand reports whether the message is a slash command
func (m *Message) IsCommand() bool {
	return len(m.Content) > 1 && m.Content[0] == '/'
}

// ReceivedEvent builds the bot.message_received fact for an inbound message
func (m *Message) ReceivedEvent() *event.Event {
	return event.NewEventAt(event.TypeBotMessageReceived, m.BotID, map[string]interface{}{
		event.KeyBotID:      m.BotID,
		event.KeyChatID:     m.ChatID,
		event.KeyUserID:     m.UserID,
		event.KeyText:       m.Content,
		event.KeyExternalID: m.ExternalID,
	}, now())
}
