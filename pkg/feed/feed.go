package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"f1livetiming/pkg/lapstore"
	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/openf1"
	"f1livetiming/pkg/pubsub"
)

// HealthTopic is the pubsub topic health changes are published on.
const HealthTopic = "feed-health"

type Mode string

const (
	ModeStream  Mode = "stream"
	ModePolling Mode = "polling"
)

const (
	DefaultMaxAttempts    = 3
	DefaultReconnectDelay = 5 * time.Second
	DefaultReceiveTimeout = 30 * time.Second
	DefaultPollInterval   = 4 * time.Second
	DefaultQueueSize      = 256

	writeTimeout = 5 * time.Second
)

// Source is the REST surface used for bootstrap and polling.
type Source interface {
	Drivers(ctx context.Context, sessionKey int) ([]openf1.Driver, error)
	Positions(ctx context.Context, sessionKey int) ([]openf1.Position, error)
	Laps(ctx context.Context, sessionKey int) ([]openf1.Lap, error)
	Intervals(ctx context.Context, sessionKey int) ([]openf1.Interval, error)
	Stints(ctx context.Context, sessionKey int) ([]openf1.Stint, error)
	Results(ctx context.Context, sessionKey int) ([]openf1.Result, error)
}

type Options struct {
	StreamURL      string
	MaxAttempts    int
	ReconnectDelay time.Duration
	ReceiveTimeout time.Duration
	PollInterval   time.Duration
	QueueSize      int
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.ReceiveTimeout <= 0 {
		o.ReceiveTimeout = DefaultReceiveTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	return o
}

// Connector starts feed handles for sessions.
type Connector struct {
	src    Source
	opts   Options
	health *pubsub.PubSub[model.Health]
	logger *slog.Logger
	dialer *websocket.Dialer
}

func NewConnector(src Source, opts Options, health *pubsub.PubSub[model.Health], logger *slog.Logger) *Connector {
	return &Connector{
		src:    src,
		opts:   opts.withDefaults(),
		health: health,
		logger: logging.NewComponentLogger(logger, "feed"),
		dialer: &websocket.Dialer{
			HandshakeTimeout:  10 * time.Second,
			EnableCompression: true,
		},
	}
}

// Handle is one running feed. The IO loop is the only producer of the queue and the
// consumer loop the only writer of the store.
type Handle struct {
	ID      string
	Session model.Session
	Mode    Mode

	c            *Connector
	store        *lapstore.Store
	logger       *slog.Logger
	cancel       context.CancelFunc
	queue        chan []lapstore.Event
	ioDone       chan struct{}
	consumerDone chan struct{}
	disconnected chan struct{}

	health   atomic.Value
	attempts atomic.Int32

	connMu sync.Mutex
	conn   *websocket.Conn
}

// Start launches the IO and consumer loops for session.
func (c *Connector) Start(ctx context.Context, session model.Session, store *lapstore.Store, mode Mode) (*Handle, error) {
	if store == nil {
		return nil, errors.New("feed: nil store")
	}
	if session.Key == 0 {
		return nil, errors.New("feed: session without key")
	}
	if mode != ModeStream && mode != ModePolling {
		return nil, errors.Errorf("feed: unknown mode %q", mode)
	}
	if mode == ModeStream && c.opts.StreamURL == "" {
		return nil, errors.New("feed: stream mode without stream url")
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		ID:           id,
		Session:      session,
		Mode:         mode,
		c:            c,
		store:        store,
		logger:       c.logger.With("handle", id[:8], "session_key", session.Key, "mode", string(mode)),
		cancel:       cancel,
		queue:        make(chan []lapstore.Event, c.opts.QueueSize),
		ioDone:       make(chan struct{}),
		consumerDone: make(chan struct{}),
		disconnected: make(chan struct{}),
	}
	h.health.Store(model.HealthIdle)

	go h.consume()
	go h.io(ctx)
	h.logger.Info("feed started")
	return h, nil
}

// Stop cancels the handle and waits for both loops to exit.
func (c *Connector) Stop(h *Handle) {
	if h == nil {
		return
	}
	h.cancel()
	h.closeConn()
	<-h.ioDone
	<-h.consumerDone
	h.logger.Info("feed stopped", "attempts", h.Attempts())
}

func (h *Handle) Health() model.Health {
	return h.health.Load().(model.Health)
}

// Disconnected is closed once the reconnect budget is spent.
func (h *Handle) Disconnected() <-chan struct{} {
	return h.disconnected
}

// Done is closed when both loops have exited.
func (h *Handle) Done() <-chan struct{} {
	return h.consumerDone
}

// Attempts is the number of stream connection attempts since the last connection that
// delivered a valid frame.
func (h *Handle) Attempts() int {
	return int(h.attempts.Load())
}

func (h *Handle) setHealth(v model.Health) {
	if old := h.health.Swap(v); old == v {
		return
	}
	h.logger.Info("feed health changed", "health", string(v))
	if h.c.health != nil {
		h.c.health.Publish(HealthTopic, v)
	}
}

func (h *Handle) consume() {
	defer close(h.consumerDone)
	for batch := range h.queue {
		h.store.Apply(batch...)
	}
}

func (h *Handle) io(ctx context.Context) {
	defer close(h.ioDone)
	defer close(h.queue)

	if h.Mode == ModePolling {
		h.runPolling(ctx)
		return
	}
	h.runStream(ctx)
}

func (h *Handle) enqueue(ctx context.Context, events []lapstore.Event) bool {
	if len(events) == 0 {
		return true
	}
	select {
	case h.queue <- events:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Handle) setConn(c *websocket.Conn) {
	h.connMu.Lock()
	h.conn = c
	h.connMu.Unlock()
}

func (h *Handle) closeConn() {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.conn != nil {
		_ = h.conn.Close()
		h.conn = nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Handle) String() string {
	return fmt.Sprintf("feed %s (%s, session %d)", h.ID, h.Mode, h.Session.Key)
}
