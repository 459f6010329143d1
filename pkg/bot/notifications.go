package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"f1livetiming/pkg/model"
	"f1livetiming/pkg/settings"
)

const (
	callbackNotifications = "notifications"
	notificationsTitle    = "Session-start notifications\n(only the first live session of each key is announced)"
)

func (b *Bot) handleCallback(_ context.Context, query *tgbotapi.CallbackQuery) error {
	data := strings.Split(query.Data, ":")
	if len(data) != 2 || data[0] != callbackNotifications || query.Message == nil {
		return nil
	}
	chatID := query.Message.Chat.ID
	st := model.SessionType(data[1])

	enabled, toggleErr := b.store.Toggle(chatID, st)
	answer := fmt.Sprintf("%s %s", st, onOff(enabled))
	if toggleErr != nil {
		b.logger.Warn("toggle notification", "chat", chatID, "type", string(st), "error", toggleErr)
		answer = "Could not change the notification"
	}
	if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, answer)); err != nil {
		b.logger.Debug("answer callback", "error", err)
	}
	if toggleErr != nil {
		return nil
	}
	id := query.Message.MessageID
	return b.renderNotifications(chatID, chatName(query.Message.Chat), &id)
}

// renderNotifications sends the keyboard, or edits the one in messageID.
func (b *Bot) renderNotifications(chatID int64, name string, messageID *int) error {
	subs, err := b.store.Subscriptions(chatID)
	if err != nil {
		return b.send(tgbotapi.NewMessage(chatID, "Could not read the notification settings"))
	}
	if messageID == nil && name != "" {
		// remembers the chat name for later announcements
		if err := b.store.Subscribe(chatID, name); err != nil {
			b.logger.Warn("store chat name", "chat", chatID, "error", err)
		}
	}
	keyboard := notificationsKeyboard(subs)
	if messageID == nil {
		msg := tgbotapi.NewMessage(chatID, notificationsTitle)
		msg.ReplyMarkup = keyboard
		return b.send(msg)
	}
	msg := tgbotapi.NewEditMessageText(chatID, *messageID, notificationsTitle)
	msg.ReplyMarkup = &keyboard
	return b.send(msg)
}

func notificationsKeyboard(s settings.Subscriptions) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(settings.Types); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for _, st := range settings.Types[i:min(i+2, len(settings.Types))] {
			label := fmt.Sprintf("%s %s", st, symbol(s[st]))
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, callbackNotifications+":"+string(st)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func symbol(enabled bool) string {
	if enabled {
		return "🔔"
	}
	return "🔕"
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
