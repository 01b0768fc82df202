// Package telegram sends assignment prompts to masters over a Telegram bot
// and applies the accept/reject button replies coming back on the webhook.
package telegram

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/remfix/remfix/internal/models"
)

// BotClient is the slice of tgbotapi.BotAPI we use. Narrowed for tests.
type BotClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier pushes assignment prompts to masters.
type Notifier struct {
	bot    BotClient
	logger *log.Logger
}

// NotifierOption configures the notifier.
type NotifierOption func(*Notifier)

// WithNotifierLogger sets a custom logger.
func WithNotifierLogger(l *log.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

// NewNotifier creates a notifier over an existing bot client.
func NewNotifier(bot BotClient, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		bot:    bot,
		logger: log.New(log.Writer(), "[TELEGRAM] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewNotifierFromToken dials the Telegram API with the bot token.
func NewNotifierFromToken(token string, opts ...NotifierOption) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return NewNotifier(bot, opts...), nil
}

// NotifyAssignment sends the accept/reject prompt for a newly assigned
// ticket. A master without a linked Telegram chat is skipped.
func (n *Notifier) NotifyAssignment(ctx context.Context, t *models.Ticket, m *models.Master) error {
	if m.TelegramChatID == nil {
		n.logger.Printf("master %d has no telegram chat, skipping prompt for %s", m.ID, t.Number)
		return nil
	}

	text := fmt.Sprintf(
		"Новая заявка %s\n%s %s\n%s\nАдрес: %s\nПроблема: %s",
		t.Number, t.DeviceType, t.DeviceModel, t.CustomerName, t.Address, t.Issue,
	)
	msg := tgbotapi.NewMessage(*m.TelegramChatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Принять", CallbackData(ActionAccept, t.ID, m.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Отклонить", CallbackData(ActionReject, t.ID, m.ID)),
		),
	)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send assignment prompt for %s: %w", t.Number, err)
	}
	return nil
}
