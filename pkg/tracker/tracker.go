package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"f1livetiming/pkg/feed"
	"f1livetiming/pkg/lapstore"
	"f1livetiming/pkg/locator"
	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/metrics"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/openf1"
	"f1livetiming/pkg/pubsub"
)

// SessionLiveTopic carries every session the tracker starts following.
const SessionLiveTopic = "session-live"

const DefaultLocateInterval = 30 * time.Second

type Locator interface {
	Locate(ctx context.Context, now time.Time) (*model.Session, error)
}

type Feeds interface {
	Start(ctx context.Context, session model.Session, store *lapstore.Store, mode feed.Mode) (*feed.Handle, error)
	Stop(h *feed.Handle)
}

type Options struct {
	LocateInterval    time.Duration
	DefaultDuration   time.Duration
	Stream            bool
	FallbackToPolling bool
	Store             lapstore.Options
}

// State is what consumers display.
type State struct {
	Session   *model.Session            `json:"session"`
	Health    model.Health              `json:"health"`
	Rows      []model.ClassificationRow `json:"rows"`
	Flag      string                    `json:"flag,omitempty"`
	Message   string                    `json:"message,omitempty"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

type Tracker struct {
	locator  Locator
	feeds    Feeds
	sessions *pubsub.PubSub[model.Session]
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	session *model.Session
	store   *lapstore.Store
	handle  *feed.Handle
	health  model.Health
}

func New(loc Locator, feeds Feeds, sessions *pubsub.PubSub[model.Session], opts Options, logger *slog.Logger) *Tracker {
	if opts.LocateInterval <= 0 {
		opts.LocateInterval = DefaultLocateInterval
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = locator.DefaultDuration
	}
	return &Tracker{
		locator:  loc,
		feeds:    feeds,
		sessions: sessions,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "tracker"),
		now:      time.Now,
		health:   model.HealthIdle,
	}
}

// Run locates immediately and then on every tick until ctx ends. It also replaces handles
// that run out of reconnect attempts.
func (t *Tracker) Run(ctx context.Context) error {
	t.Sync(ctx, t.now())
	ticker := time.NewTicker(t.opts.LocateInterval)
	defer ticker.Stop()
	defer t.stopFeed()

	for {
		var disconnected <-chan struct{}
		if h := t.currentHandle(); h != nil {
			disconnected = h.Disconnected()
		}
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			t.Sync(ctx, now)
		case <-disconnected:
			t.handleDisconnect(ctx)
		}
	}
}

// Sync runs one locate cycle.
func (t *Tracker) Sync(ctx context.Context, now time.Time) {
	s, err := t.locator.Locate(ctx, now)
	if err != nil {
		if !openf1.IsRecoverable(err) {
			t.logger.Error("locate failed, keeping previous state", "kind", string(openf1.KindOf(err)), "error", err)
			return
		}
		t.logger.Warn("locate failed, keeping previous state", "kind", string(openf1.KindOf(err)), "error", err)
		return
	}
	if s == nil {
		t.mu.RLock()
		had := t.session != nil
		t.mu.RUnlock()
		if had {
			t.logger.Info("no live or upcoming session")
		}
		t.replace(nil, nil, nil, model.HealthIdle)
		return
	}

	t.mu.RLock()
	current, store, handle, health := t.session, t.store, t.handle, t.health
	t.mu.RUnlock()
	sameKey := current != nil && current.Key == s.Key

	if s.Status != model.StatusLive {
		if !sameKey {
			store = nil
		}
		t.replace(s, store, nil, model.HealthIdle)
		return
	}

	if sameKey && (handle != nil || health == model.HealthDisconnected) {
		t.mu.Lock()
		t.session = s
		t.mu.Unlock()
		return
	}

	store = lapstore.New(t.opts.Store)
	mode := feed.ModePolling
	if t.opts.Stream {
		mode = feed.ModeStream
	}
	h, err := t.feeds.Start(ctx, *s, store, mode)
	if err != nil {
		t.logger.Error("could not start feed", "session_key", s.Key, "error", err)
		t.replace(s, store, nil, model.HealthDisconnected)
		return
	}
	t.logger.Info("following live session", "session_key", s.Key, "name", s.Name, "circuit", s.Circuit, "mode", string(mode))
	t.replace(s, store, h, h.Health())
	if t.sessions != nil {
		t.sessions.Publish(SessionLiveTopic, *s)
	}
}

func (t *Tracker) handleDisconnect(ctx context.Context) {
	t.mu.RLock()
	s, store, old := t.session, t.store, t.handle
	t.mu.RUnlock()
	if old == nil {
		return
	}
	t.feeds.Stop(old)

	if !t.opts.FallbackToPolling || s == nil {
		t.logger.Warn("feed disconnected", "session_key", old.Session.Key)
		t.mu.Lock()
		t.handle, t.health = nil, model.HealthDisconnected
		t.mu.Unlock()
		return
	}

	h, err := t.feeds.Start(ctx, *s, store, feed.ModePolling)
	if err != nil {
		t.logger.Error("could not fall back to polling", "session_key", s.Key, "error", err)
		t.mu.Lock()
		t.handle, t.health = nil, model.HealthDisconnected
		t.mu.Unlock()
		return
	}
	t.logger.Info("stream lost, polling instead", "session_key", s.Key)
	t.mu.Lock()
	t.handle, t.health = h, model.HealthPolling
	t.mu.Unlock()
}

// replace swaps the tracked state and stops the previous handle if it changed.
func (t *Tracker) replace(s *model.Session, store *lapstore.Store, h *feed.Handle, health model.Health) {
	t.mu.Lock()
	old := t.handle
	t.session, t.store, t.handle, t.health = s, store, h, health
	t.mu.Unlock()
	if old != nil && old != h {
		t.feeds.Stop(old)
	}
}

func (t *Tracker) stopFeed() {
	t.mu.Lock()
	old := t.handle
	t.handle = nil
	if old != nil {
		t.health = model.HealthIdle
	}
	t.mu.Unlock()
	if old != nil {
		t.feeds.Stop(old)
	}
}

func (t *Tracker) currentHandle() *feed.Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handle
}

// State recomputes session status for now and classifies the latest snapshot.
func (t *Tracker) State(now time.Time) State {
	t.mu.RLock()
	session, store, handle, health := t.session, t.store, t.handle, t.health
	t.mu.RUnlock()

	st := State{Health: health, Rows: []model.ClassificationRow{}, UpdatedAt: now}
	if handle != nil {
		st.Health = handle.Health()
	}
	if session == nil {
		return st
	}
	s := locator.Refresh(*session, now, t.opts.DefaultDuration)
	st.Session = &s
	if store != nil {
		snap := store.Snapshot()
		st.Rows = metrics.Classify(snap, s.Type)
		st.Flag, st.Message = snap.Flag, snap.Message
	}
	return st
}
