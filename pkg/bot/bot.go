// Package bot answers Telegram chats: live classification on demand and a keyboard to
// manage session-start subscriptions.
package bot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/render"
	"f1livetiming/pkg/settings"
	"f1livetiming/pkg/tracker"
)

const (
	commandStart         = "start"
	commandHelp          = "help"
	commandLive          = "live"
	commandSession       = "session"
	commandNotifications = "notifications"

	helpText = "/live current classification\n/session live or next session\n/notifications session-start alerts"
)

// Sender is the part of tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Store interface {
	Subscribe(chatID int64, name string, types ...model.SessionType) error
	Toggle(chatID int64, st model.SessionType) (bool, error)
	Subscriptions(chatID int64) (settings.Subscriptions, error)
}

type StateSource interface {
	State(now time.Time) tracker.State
}

type Bot struct {
	sender Sender
	store  Store
	state  StateSource
	logger *slog.Logger
	now    func() time.Time
}

func New(sender Sender, store Store, state StateSource, logger *slog.Logger) *Bot {
	return &Bot{
		sender: sender,
		store:  store,
		state:  state,
		logger: logging.NewComponentLogger(logger, "bot"),
		now:    time.Now,
	}
}

// Run handles updates until ctx ends or the channel is closed.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := b.HandleUpdate(ctx, update); err != nil {
				b.logger.Warn("handle update", "update_id", update.UpdateID, "error", err)
			}
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		return b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	}
	return nil
}

func (b *Bot) handleCommand(_ context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID
	b.logger.Debug("command", "chat", chatID, "command", m.Command())
	switch m.Command() {
	case commandStart, commandHelp:
		return b.send(tgbotapi.NewMessage(chatID, helpText))
	case commandLive:
		var buf bytes.Buffer
		render.Compact(&buf, b.state.State(b.now()))
		return b.send(codeBlock(chatID, buf.String()))
	case commandSession:
		st := b.state.State(b.now())
		text := render.Header(st)
		if st.Session != nil {
			text += "\n" + st.Session.String()
		}
		return b.send(tgbotapi.NewMessage(chatID, text))
	case commandNotifications:
		return b.renderNotifications(chatID, chatName(m.Chat), nil)
	}
	return b.send(tgbotapi.NewMessage(chatID, "Unknown command\n"+helpText))
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	_, err := b.sender.Send(c)
	return err
}

// codeBlock wraps text in a MarkdownV2 pre block so the table keeps its alignment.
func codeBlock(chatID int64, text string) tgbotapi.MessageConfig {
	escaped := strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(text)
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("```\n%s```", escaped))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

func chatName(c *tgbotapi.Chat) string {
	switch {
	case c == nil:
		return ""
	case c.Title != "":
		return c.Title
	case c.UserName != "":
		return c.UserName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
