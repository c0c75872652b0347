package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ukoquique-proves/JavaFlow/internal/application/service"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

// InboundWebhookRequest is a chat message forwarded by a platform bridge
type InboundWebhookRequest struct {
	ChatID     string `json:"chat_id" binding:"required"`
	UserID     string `json:"user_id"`
	Text       string `json:"text" binding:"required"`
	ExternalID string `json:"external_id"`
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var cmd service.CreateUserCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	u, err := h.Users.CreateUser(c.Request.Context(), cmd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetUser handles GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	u, err := h.Users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// CreateBot handles POST /api/v1/bots
func (h *Handlers) CreateBot(c *gin.Context) {
	var cmd service.CreateBotCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	cmd.Type = entity.BotType(strings.ToUpper(string(cmd.Type)))

	bot, err := h.Bots.CreateBot(c.Request.Context(), cmd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, bot)
}

// ListBots handles GET /api/v1/bots?type=TELEGRAM&active=true
func (h *Handlers) ListBots(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		list []*service.BotResult
		err  error
	)
	switch {
	case c.Query("type") != "":
		list, err = h.Bots.ListBotsByType(ctx, entity.BotType(strings.ToUpper(c.Query("type"))))
	case c.Query("active") == "true":
		list, err = h.Bots.ListActiveBots(ctx)
	default:
		list, err = h.Bots.ListBots(ctx)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// GetBot handles GET /api/v1/bots/:id
func (h *Handlers) GetBot(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	bot, err := h.Bots.GetBot(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, bot)
}

// ActivateBot handles POST /api/v1/bots/:id/activate
func (h *Handlers) ActivateBot(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	bot, err := h.Bots.ActivateBot(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, bot)
}

// DeactivateBot handles POST /api/v1/bots/:id/deactivate
func (h *Handlers) DeactivateBot(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	bot, err := h.Bots.DeactivateBot(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, bot)
}

// DeleteBot handles DELETE /api/v1/bots/:id
func (h *Handlers) DeleteBot(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.Bots.DeleteBot(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBotMessages handles GET /api/v1/bots/:id/messages
func (h *Handlers) ListBotMessages(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	list, err := h.Bots.ListMessagesByBot(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// ListChatMessages handles GET /api/v1/messages?chat_id=...
func (h *Handlers) ListChatMessages(c *gin.Context) {
	chatID := c.Query("chat_id")
	if chatID == "" {
		badRequest(c, "chat_id is required")
		return
	}
	list, err := h.Bots.ListMessagesByChat(c.Request.Context(), chatID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// BotWebhook handles POST /api/v1/bots/:id/webhook.
// The message is published as bot.message_received and answered 202; without a bus it is processed inline.
func (h *Handlers) BotWebhook(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var req InboundWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "chat_id and text are required")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Bots.GetBot(ctx, id); err != nil {
		h.writeError(c, err)
		return
	}

	evt := event.NewEvent(event.TypeBotMessageReceived, id, map[string]interface{}{
		event.KeyBotID:      id,
		event.KeyChatID:     req.ChatID,
		event.KeyUserID:     req.UserID,
		event.KeyText:       req.Text,
		event.KeyExternalID: req.ExternalID,
	})

	if h.Inbound == nil {
		if err := h.Bots.HandleMessageReceived(ctx, evt); err != nil {
			h.writeError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"event_id": evt.ID})
		return
	}

	if err := h.Inbound.Publish(ctx, evt); err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusAccepted, gin.H{"event_id": evt.ID})
}
