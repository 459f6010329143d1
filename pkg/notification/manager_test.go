package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/pubsub"
	"f1livetiming/pkg/settings"
	"f1livetiming/pkg/tracker"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	fail map[int64]bool
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg := c.(tgbotapi.MessageConfig)
	if b.fail[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("bot was blocked by the user")
	}
	b.sent = append(b.sent, msg)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), b.sent...)
}

type stubLister map[model.SessionType][]settings.Subscriber

func (l stubLister) ListSubscribers(st model.SessionType) ([]settings.Subscriber, error) {
	if st == "broken" {
		return nil, errors.New("database is locked")
	}
	return l[st], nil
}

var race = model.Session{Key: 9472, Name: "Race", Circuit: "Sakhir", Location: "Sakhir", Type: model.Race, Start: time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)}

func TestTelegramSendsToEveryReceiver(t *testing.T) {
	bot := &fakeBot{fail: map[int64]bool{2: true}}
	tg := &Telegram{}
	tg.SetClient(bot)
	tg.AddReceivers(1, 2, 3)

	err := tg.Send(context.Background(), "Session started:", "Race")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 2")

	sent := bot.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(1), sent[0].ChatID)
	assert.Equal(t, int64(3), sent[1].ChatID)
	assert.Equal(t, "Session started:\nRace", sent[0].Text)
}

func TestManagerAnnouncesSessionOnce(t *testing.T) {
	bot := &fakeBot{}
	lister := stubLister{model.Race: {{ChatID: 10, Name: "a"}, {ChatID: 20, Name: "b"}}}
	ps := pubsub.NewPubSub[model.Session]()
	defer ps.Close()
	m := NewManager(lister, TelegramFactory(bot), ps, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// the subscription is in place once a publish gets through
	require.Eventually(t, func() bool {
		ps.Publish(tracker.SessionLiveTopic, race)
		return len(bot.messages()) == 2
	}, 3*time.Second, 10*time.Millisecond)

	ps.Publish(tracker.SessionLiveTopic, race)
	time.Sleep(50 * time.Millisecond)

	sent := bot.messages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Text, "Sakhir")
}

func TestHandleNotificationWithoutSubscribers(t *testing.T) {
	bot := &fakeBot{}
	m := NewManager(stubLister{}, TelegramFactory(bot), pubsub.NewPubSub[model.Session](), logging.NewNop())
	m.handleNotification(context.Background(), race)
	assert.Empty(t, bot.messages())
}

func TestHandleNotificationListerFailure(t *testing.T) {
	bot := &fakeBot{}
	m := NewManager(stubLister{}, TelegramFactory(bot), pubsub.NewPubSub[model.Session](), logging.NewNop())
	m.handleNotification(context.Background(), model.Session{Key: 1, Type: "broken"})
	assert.Empty(t, bot.messages())
}

func TestStartReturnsWhenPubSubCloses(t *testing.T) {
	ps := pubsub.NewPubSub[model.Session]()
	m := NewManager(stubLister{}, TelegramFactory(&fakeBot{}), ps, logging.NewNop())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Start(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)
	ps.Close()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return")
	}
}
