package telegram

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Bot owns the single configured bot: its API client, the pending-input
// register, and the update handler. Updates arrive on the webhook route; the
// path segment is a secret derived from the token, and the platform echoes
// the shared webhook secret in a header.
type Bot struct {
	client        *Client
	handler       *UpdateHandler
	secret        string
	webhookSecret string
}

func NewBot(token, webhookSecret string, handler *UpdateHandler) *Bot {
	return &Bot{
		client:        handler.client,
		handler:       handler,
		secret:        tokenSecret(token),
		webhookSecret: webhookSecret,
	}
}

func tokenSecret(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h[:16])
}

// WebhookPath is the secret-bearing route the platform delivers updates to.
func (b *Bot) WebhookPath() string {
	return "/webhook/bot/" + b.secret
}

// RegisterWebhook points the platform at baseURL. Callers skip this when no
// externally reachable URL is configured.
func (b *Bot) RegisterWebhook(baseURL string) error {
	url := fmt.Sprintf("%s/webhook/bot/%s", baseURL, b.secret)
	if err := b.client.SetWebhook(url, b.webhookSecret); err != nil {
		return err
	}
	log.Printf("[bot] webhook registered: %s", url)
	return nil
}

func (b *Bot) Shutdown() {
	if err := b.client.DeleteWebhook(); err != nil {
		log.Printf("[bot] delete webhook: %v", err)
	}
}

func (b *Bot) HandleWebhook(c *gin.Context) {
	if c.Param("secret") != b.secret {
		c.Status(http.StatusNotFound)
		return
	}
	if b.webhookSecret != "" {
		if c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != b.webhookSecret {
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var upd Update
	if err := json.Unmarshal(body, &upd); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	go b.handler.Handle(upd)

	c.Status(http.StatusOK)
}
