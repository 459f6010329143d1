package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nikoksr/notify"

	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/pubsub"
	"f1livetiming/pkg/settings"
	"f1livetiming/pkg/tracker"
)

const subject = "Session started:"

type Lister interface {
	ListSubscribers(st model.SessionType) ([]settings.Subscriber, error)
}

// Factory builds the notify service addressed to the given chats.
type Factory func(chatIDs []int64) notify.Notifier

// TelegramFactory addresses chats through one bot.
func TelegramFactory(bot botSender) Factory {
	return func(chatIDs []int64) notify.Notifier {
		tg := &Telegram{}
		tg.SetClient(bot)
		tg.AddReceivers(chatIDs...)
		return tg
	}
}

type Manager struct {
	lister   Lister
	services Factory
	sessions *pubsub.PubSub[model.Session]
	logger   *slog.Logger

	mu        sync.Mutex
	announced map[int]bool
}

func NewManager(lister Lister, services Factory, sessions *pubsub.PubSub[model.Session], logger *slog.Logger) *Manager {
	return &Manager{
		lister:    lister,
		services:  services,
		sessions:  sessions,
		logger:    logging.NewComponentLogger(logger, "notification"),
		announced: make(map[int]bool),
	}
}

// Start announces every session published on the session-live topic until ctx ends.
func (m *Manager) Start(ctx context.Context) {
	started := m.sessions.Subscribe(tracker.SessionLiveTopic)
	defer m.sessions.Unsubscribe(tracker.SessionLiveTopic, started)
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-started:
			if !ok {
				return
			}
			m.handleNotification(ctx, s)
		}
	}
}

func (m *Manager) handleNotification(ctx context.Context, s model.Session) {
	m.mu.Lock()
	if m.announced[s.Key] {
		m.mu.Unlock()
		return
	}
	m.announced[s.Key] = true
	m.mu.Unlock()

	recipients, err := m.lister.ListSubscribers(s.Type)
	if err != nil {
		m.logger.Warn("list subscribers", "session_key", s.Key, "error", err)
		return
	}
	m.logger.Info("announcing session", "session_key", s.Key, "type", string(s.Type), "recipients", len(recipients))
	if err := m.sendNotification(ctx, recipients, s); err != nil {
		m.logger.Warn("notify subscribers", "session_key", s.Key, "error", err)
	}
}

func (m *Manager) sendNotification(ctx context.Context, recipients []settings.Subscriber, s model.Session) error {
	if len(recipients) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.ChatID)
	}
	n := notify.NewWithServices(m.services(ids))
	return n.Send(ctx, subject, s.String())
}
