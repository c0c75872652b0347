package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/usecase"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// CreateBotCommand registers a chat bot. Token is the platform credential in plaintext.
type CreateBotCommand struct {
	Name       string         `json:"name" validate:"required,min=3,max=100"`
	Type       entity.BotType `json:"type" validate:"required,oneof=TELEGRAM WHATSAPP"`
	Token      string         `json:"token" validate:"required"`
	WebhookURL string         `json:"webhook_url,omitempty" validate:"omitempty,url"`
	Config     string         `json:"config,omitempty"`
}

// InboundMessage is a chat message received from a platform
type InboundMessage struct {
	BotID      int64  `json:"bot_id"`
	ChatID     string `json:"chat_id" validate:"required"`
	UserID     string `json:"user_id,omitempty"`
	Content    string `json:"content" validate:"required"`
	ExternalID string `json:"external_id,omitempty"`
}

// BotResult is the public view of a bot. The token never leaves the service through it.
type BotResult struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	HasToken   bool      `json:"has_token"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newBotResult(b *entity.BotConfiguration) *BotResult {
	return &BotResult{
		ID:         b.ID,
		Name:       b.Name,
		Type:       b.Type.String(),
		Status:     b.Status.String(),
		WebhookURL: b.WebhookURL,
		HasToken:   b.Token != "",
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// MessageResult is the public view of a stored chat message
type MessageResult struct {
	ID          int64     `json:"id"`
	BotID       int64     `json:"bot_id"`
	ChatID      string    `json:"chat_id"`
	UserID      string    `json:"user_id,omitempty"`
	Content     string    `json:"content"`
	Direction   string    `json:"direction"`
	MessageType string    `json:"message_type"`
	ExternalID  string    `json:"external_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newMessageResults(messages []*entity.Message) []*MessageResult {
	out := make([]*MessageResult, 0, len(messages))
	for _, m := range messages {
		out = append(out, &MessageResult{
			ID:          m.ID,
			BotID:       m.BotID,
			ChatID:      m.ChatID,
			UserID:      m.UserID,
			Content:     m.Content,
			Direction:   string(m.Direction),
			MessageType: string(m.MessageType),
			ExternalID:  m.ExternalID,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}

// WorkflowLister is the read side the bot commands need
type WorkflowLister interface {
	ListWorkflows(ctx context.Context) ([]*usecase.WorkflowResult, error)
}

// BotService manages bot configurations and the chat conversation loop
type BotService interface {
	CreateBot(ctx context.Context, cmd CreateBotCommand) (*BotResult, error)
	GetBot(ctx context.Context, id int64) (*BotResult, error)
	ListBots(ctx context.Context) ([]*BotResult, error)
	ListActiveBots(ctx context.Context) ([]*BotResult, error)
	ListBotsByType(ctx context.Context, botType entity.BotType) ([]*BotResult, error)
	ActivateBot(ctx context.Context, id int64) (*BotResult, error)
	DeactivateBot(ctx context.Context, id int64) (*BotResult, error)
	DeleteBot(ctx context.Context, id int64) error
	// RevealToken decrypts the stored platform credential
	RevealToken(ctx context.Context, id int64) (string, error)

	// HandleMessageReceived consumes a bot.message_received event
	HandleMessageReceived(ctx context.Context, evt *event.Event) error
	ProcessInboundMessage(ctx context.Context, msg InboundMessage) error
	SendMessage(ctx context.Context, botID int64, chatID, text string) error

	ListMessagesByChat(ctx context.Context, chatID string) ([]*MessageResult, error)
	ListMessagesByBot(ctx context.Context, botID int64) ([]*MessageResult, error)
}

// BotServiceDeps holds the collaborators of the bot service
type BotServiceDeps struct {
	Bots      port.BotRepository
	Messages  port.MessageRepository
	Workflows WorkflowLister
	Cipher    port.SecretCipher
	Senders   []port.BotSender
	Metrics   port.MetricsRecorder
	Logger    Logger
}

type commandContext struct {
	bot    *entity.BotConfiguration
	chatID string
	text   string
}

type commandHandler func(ctx context.Context, cc commandContext) (string, error)

type botServiceImpl struct {
	bots      port.BotRepository
	messages  port.MessageRepository
	workflows WorkflowLister
	cipher    port.SecretCipher
	senders   map[entity.BotType]port.BotSender
	metrics   port.MetricsRecorder
	logger    Logger
	validate  *validator.Validate

	commands map[string]commandHandler
}

const (
	commandUnknown = "unknown"

	welcomeText = `Welcome to JavaFlow!

Available commands:
/help - Show help
/status - Show system status
/workflows - List available workflows`

	helpText = `JavaFlow help

This bot lets you interact with automated workflows.
Send messages and the system will process them automatically.

Available commands:
• /start - Welcome message
• /help - Show this help
• /status - Show system status
• /workflows - List available workflows`

	unknownCommandText = "Unknown command. Use /help to see the available commands."
)

// NewBotService creates a bot service
func NewBotService(deps BotServiceDeps) BotService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = port.NopMetrics{}
	}

	s := &botServiceImpl{
		bots:      deps.Bots,
		messages:  deps.Messages,
		workflows: deps.Workflows,
		cipher:    deps.Cipher,
		senders:   make(map[entity.BotType]port.BotSender, len(deps.Senders)),
		metrics:   metrics,
		logger:    deps.Logger,
		validate:  validator.New(),
	}
	for _, sender := range deps.Senders {
		s.senders[sender.Type()] = sender
	}

	s.commands = map[string]commandHandler{
		"/start":       s.handleStart,
		"/help":        s.handleHelp,
		"/status":      s.handleStatus,
		"/workflows":   s.handleWorkflows,
		commandUnknown: s.handleUnknown,
	}
	return s
}

// =============================================================================
// Bot configuration
// =============================================================================

func (s *botServiceImpl) CreateBot(ctx context.Context, cmd CreateBotCommand) (*BotResult, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errs.ErrInvalidCommand.Withf("Invalid bot configuration: %v", err).Wrap(err)
	}

	s.logger.Info("Creating bot", "name", cmd.Name, "type", cmd.Type)

	token, err := s.cipher.Encrypt(cmd.Token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	bot := &entity.BotConfiguration{
		Name:       strings.TrimSpace(cmd.Name),
		Type:       cmd.Type,
		Token:      token,
		WebhookURL: cmd.WebhookURL,
		Status:     entity.BotStatusInactive,
		Config:     cmd.Config,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bots.Create(ctx, bot); err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return newBotResult(bot), nil
}

func (s *botServiceImpl) GetBot(ctx context.Context, id int64) (*BotResult, error) {
	bot, err := s.findBot(ctx, id)
	if err != nil {
		return nil, err
	}
	return newBotResult(bot), nil
}

func (s *botServiceImpl) ListBots(ctx context.Context) ([]*BotResult, error) {
	return botResults(s.bots.FindAll(ctx))
}

func (s *botServiceImpl) ListActiveBots(ctx context.Context) ([]*BotResult, error) {
	return botResults(s.bots.FindByStatus(ctx, entity.BotStatusActive))
}

func (s *botServiceImpl) ListBotsByType(ctx context.Context, botType entity.BotType) ([]*BotResult, error) {
	if !botType.IsValid() {
		return nil, errs.ErrInvalidCommand.Withf("invalid bot type: %s", botType)
	}
	return botResults(s.bots.FindByType(ctx, botType))
}

func (s *botServiceImpl) ActivateBot(ctx context.Context, id int64) (*BotResult, error) {
	s.logger.Info("Activating bot", "bot_id", id)
	return s.setStatus(ctx, id, entity.BotStatusActive)
}

func (s *botServiceImpl) DeactivateBot(ctx context.Context, id int64) (*BotResult, error) {
	s.logger.Info("Deactivating bot", "bot_id", id)
	return s.setStatus(ctx, id, entity.BotStatusInactive)
}

func (s *botServiceImpl) DeleteBot(ctx context.Context, id int64) error {
	s.logger.Info("Deleting bot", "bot_id", id)
	if _, err := s.findBot(ctx, id); err != nil {
		return err
	}
	return s.bots.Delete(ctx, id)
}

func (s *botServiceImpl) RevealToken(ctx context.Context, id int64) (string, error) {
	bot, err := s.findBot(ctx, id)
	if err != nil {
		return "", err
	}
	return s.cipher.Decrypt(bot.Token)
}

func (s *botServiceImpl) setStatus(ctx context.Context, id int64, status entity.BotStatus) (*BotResult, error) {
	bot, err := s.findBot(ctx, id)
	if err != nil {
		return nil, err
	}
	bot.Status = status
	bot.UpdatedAt = time.Now()
	if err := s.bots.Update(ctx, bot); err != nil {
		return nil, fmt.Errorf("failed to update bot %d: %w", id, err)
	}
	return newBotResult(bot), nil
}

func (s *botServiceImpl) findBot(ctx context.Context, id int64) (*entity.BotConfiguration, error) {
	bot, err := s.bots.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, errs.ErrBotNotFound.Withf("Bot not found with ID: %d", id)
	}
	return bot, nil
}

func botResults(bots []*entity.BotConfiguration, err error) ([]*BotResult, error) {
	if err != nil {
		return nil, err
	}
	out := make([]*BotResult, 0, len(bots))
	for _, b := range bots {
		out = append(out, newBotResult(b))
	}
	return out, nil
}

// =============================================================================
// Conversation loop
// =============================================================================

func (s *botServiceImpl) HandleMessageReceived(ctx context.Context, evt *event.Event) error {
	msg := InboundMessage{
		BotID:      evt.GetPayloadInt(event.KeyBotID),
		ChatID:     evt.GetPayloadString(event.KeyChatID),
		UserID:     evt.GetPayloadString(event.KeyUserID),
		Content:    evt.GetPayloadString(event.KeyText),
		ExternalID: evt.GetPayloadString(event.KeyExternalID),
	}

	bot, err := s.findBot(ctx, msg.BotID)
	if err != nil {
		return err
	}
	s.metrics.RecordBotMessage(botTypeLabel(bot), string(entity.MessageDirectionInbound))

	return s.ProcessInboundMessage(ctx, msg)
}

func (s *botServiceImpl) ProcessInboundMessage(ctx context.Context, msg InboundMessage) error {
	if err := s.validate.Struct(msg); err != nil {
		return errs.ErrInvalidCommand.Withf("Invalid inbound message: %v", err).Wrap(err)
	}

	bot, err := s.findBot(ctx, msg.BotID)
	if err != nil {
		return err
	}

	if err := s.storeMessage(ctx, bot, msg.ChatID, msg.UserID, msg.Content, msg.ExternalID, entity.MessageDirectionInbound); err != nil {
		return err
	}

	var reply string
	if strings.HasPrefix(msg.Content, "/") {
		reply, err = s.runCommand(ctx, commandContext{bot: bot, chatID: msg.ChatID, text: msg.Content})
		if err != nil {
			return err
		}
	} else {
		reply = "Message received: " + msg.Content
	}

	return s.send(ctx, bot, msg.ChatID, reply)
}

func (s *botServiceImpl) SendMessage(ctx context.Context, botID int64, chatID, text string) error {
	bot, err := s.findBot(ctx, botID)
	if err != nil {
		return err
	}
	return s.send(ctx, bot, chatID, text)
}

func (s *botServiceImpl) ListMessagesByChat(ctx context.Context, chatID string) ([]*MessageResult, error) {
	messages, err := s.messages.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return newMessageResults(messages), nil
}

func (s *botServiceImpl) ListMessagesByBot(ctx context.Context, botID int64) ([]*MessageResult, error) {
	messages, err := s.messages.FindByBotID(ctx, botID)
	if err != nil {
		return nil, err
	}
	return newMessageResults(messages), nil
}

// send delivers text through the platform sender, then records and stores it
func (s *botServiceImpl) send(ctx context.Context, bot *entity.BotConfiguration, chatID, text string) error {
	sender, ok := s.senders[bot.Type]
	if !ok {
		s.logger.Error("No bot sender registered", "bot_type", bot.Type)
		return errs.ErrInvalidCommand.Withf("Unsupported bot type: %s", bot.Type)
	}

	token, err := s.cipher.Decrypt(bot.Token)
	if err != nil {
		return err
	}
	withToken := *bot
	withToken.Token = token

	if err := sender.SendMessage(ctx, &withToken, chatID, text); err != nil {
		return fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}

	s.metrics.RecordBotMessage(botTypeLabel(bot), string(entity.MessageDirectionOutbound))
	return s.storeMessage(ctx, bot, chatID, "", text, "", entity.MessageDirectionOutbound)
}

func (s *botServiceImpl) storeMessage(ctx context.Context, bot *entity.BotConfiguration, chatID, userID, content, externalID string, direction entity.MessageDirection) error {
	msg := &entity.Message{
		BotID:       bot.ID,
		ExternalID:  externalID,
		ChatID:      chatID,
		UserID:      userID,
		Direction:   direction,
		Content:     content,
		MessageType: entity.MessageTypeText,
		CreatedAt:   time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to store %s message: %w", strings.ToLower(string(direction)), err)
	}
	return nil
}

// =============================================================================
// Commands
// =============================================================================

func (s *botServiceImpl) runCommand(ctx context.Context, cc commandContext) (string, error) {
	name := strings.Fields(cc.text)[0]

	handler, ok := s.commands[name]
	if !ok {
		s.logger.Warn("No handler for bot command", "command", name, "bot_id", cc.bot.ID)
		handler = s.commands[commandUnknown]
	}
	return handler(ctx, cc)
}

func (s *botServiceImpl) handleStart(ctx context.Context, cc commandContext) (string, error) {
	s.metrics.RecordBotCommand(botTypeLabel(cc.bot), "start")
	return welcomeText, nil
}

func (s *botServiceImpl) handleHelp(ctx context.Context, cc commandContext) (string, error) {
	s.metrics.RecordBotCommand(botTypeLabel(cc.bot), "help")
	return helpText, nil
}

func (s *botServiceImpl) handleStatus(ctx context.Context, cc commandContext) (string, error) {
	s.metrics.RecordBotCommand(botTypeLabel(cc.bot), "status")

	workflows, err := s.workflows.ListWorkflows(ctx)
	if err != nil {
		return "", err
	}
	active := 0
	for _, w := range workflows {
		if w.Status == entity.WorkflowStatusActive.String() {
			active++
		}
	}
	return fmt.Sprintf("System operational\nActive workflows: %d", active), nil
}

func (s *botServiceImpl) handleWorkflows(ctx context.Context, cc commandContext) (string, error) {
	s.metrics.RecordBotCommand(botTypeLabel(cc.bot), "workflows")

	workflows, err := s.workflows.ListWorkflows(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Available workflows:\n\n")
	for _, w := range workflows {
		fmt.Fprintf(&b, "• %s (%s)\n", w.Name, w.Status)
	}
	return b.String(), nil
}

func (s *botServiceImpl) handleUnknown(ctx context.Context, cc commandContext) (string, error) {
	s.metrics.RecordBotCommand(botTypeLabel(cc.bot), commandUnknown)
	return unknownCommandText, nil
}

func botTypeLabel(bot *entity.BotConfiguration) string {
	return strings.ToLower(bot.Type.String())
}
