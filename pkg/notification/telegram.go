package notification

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// botSender is the part of tgbotapi.BotAPI the notifier needs.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notify messages to a set of chats through a bot.
type Telegram struct {
	client  botSender
	chatIDs []int64
}

func (t *Telegram) SetClient(client botSender) {
	t.client = client
}

func (t *Telegram) AddReceivers(chatIDs ...int64) {
	t.chatIDs = append(t.chatIDs, chatIDs...)
}

// Send implements notify.Notifier. Every chat is attempted; the first failure is returned.
func (t *Telegram) Send(ctx context.Context, subject, message string) error {
	var first error
	for _, id := range t.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(id, subject+"\n"+message)
		if _, err := t.client.Send(msg); err != nil && first == nil {
			first = errors.Wrapf(err, "send to chat %d", id)
		}
	}
	return first
}
