package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/remfix/remfix/internal/apierrors"
)

// TelegramWebhook applies bot callback updates (master accept/reject
// buttons). The secret token set at webhook registration gates it.
func (a *API) TelegramWebhook(c *gin.Context) {
	if a.notifier == nil {
		apierrors.Error(c, apierrors.CodeServiceUnavailable)
		return
	}
	if secret := a.cfg.Telegram.WebhookSecret; secret != "" {
		got := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			apierrors.Error(c, apierrors.CodeForbidden)
			return
		}
	}

	var upd tgbotapi.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	if err := a.notifier.HandleUpdate(c.Request.Context(), &upd, a.tickets); err != nil {
		a.logger.Printf("telegram update %d: %v", upd.UpdateID, err)
	}
	// Always 200: Telegram retries anything else, and retrying a failed
	// callback cannot make it succeed.
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
