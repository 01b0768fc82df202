package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/remfix/remfix/internal/models"
)

// Callback actions encoded in inline button data.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// CallbackData encodes an inline button payload: "<action>:<ticket>:<master>".
func CallbackData(action string, ticketID, masterID int64) string {
	return fmt.Sprintf("%s:%d:%d", action, ticketID, masterID)
}

// ParseCallback decodes a button payload back into its parts.
func ParseCallback(data string) (action string, ticketID, masterID int64, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("callback %q: want 3 segments, got %d", data, len(parts))
	}
	if parts[0] != ActionAccept && parts[0] != ActionReject {
		return "", 0, 0, fmt.Errorf("callback %q: unknown action", data)
	}
	ticketID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("callback %q: ticket id: %w", data, err)
	}
	masterID, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("callback %q: master id: %w", data, err)
	}
	return parts[0], ticketID, masterID, nil
}

// AssignmentResolver applies a master's accept/reject decision.
// Implemented by the ticket service.
type AssignmentResolver interface {
	AcceptAssignment(ctx context.Context, ticketID, masterID int64) (*models.Ticket, error)
	RejectAssignment(ctx context.Context, ticketID, masterID int64) (*models.Ticket, error)
}

// HandleUpdate applies one webhook update. Malformed or irrelevant updates
// are acknowledged and dropped so Telegram stops retrying them.
func (n *Notifier) HandleUpdate(ctx context.Context, upd *tgbotapi.Update, resolver AssignmentResolver) error {
	if upd.CallbackQuery == nil {
		return nil
	}
	query := upd.CallbackQuery

	action, ticketID, masterID, err := ParseCallback(query.Data)
	if err != nil {
		n.logger.Printf("dropping callback: %v", err)
		n.answer(query.ID, "")
		return nil
	}

	var t *models.Ticket
	switch action {
	case ActionAccept:
		t, err = resolver.AcceptAssignment(ctx, ticketID, masterID)
	case ActionReject:
		t, err = resolver.RejectAssignment(ctx, ticketID, masterID)
	}
	if err != nil {
		n.answer(query.ID, "Не удалось обработать ответ")
		return fmt.Errorf("%s ticket %d for master %d: %w", action, ticketID, masterID, err)
	}

	reply := "Заявка " + t.Number + " принята"
	if action == ActionReject {
		reply = "Заявка " + t.Number + " отклонена"
	}
	n.answer(query.ID, reply)
	return nil
}

func (n *Notifier) answer(queryID, text string) {
	if _, err := n.bot.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		n.logger.Printf("answer callback %s: %v", queryID, err)
	}
}
