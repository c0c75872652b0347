package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Header names accepted for the inbound webhook secret. Telegram sends the first one
// when the webhook was registered with a secret_token.
const (
	TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	WebhookSecretHeader  = "X-Webhook-Secret"
)

// webhookAuth rejects inbound bot webhooks that do not carry the configured secret.
// An empty secret disables the check.
func (s *Server) webhookAuth() gin.HandlerFunc {
	secret := []byte(s.config.WebhookSecret)

	return func(c *gin.Context) {
		if len(secret) == 0 {
			c.Next()
			return
		}

		token := c.GetHeader(TelegramSecretHeader)
		if token == "" {
			token = c.GetHeader(WebhookSecretHeader)
		}
		if subtle.ConstantTimeCompare([]byte(token), secret) != 1 {
			s.logger.Warn("Rejected webhook with invalid secret",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP())
			writeProblem(c, newProblem(c, http.StatusUnauthorized, "unauthorized", "Invalid webhook secret"))
			c.Abort()
			return
		}
		c.Next()
	}
}
