package webserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/pubsub"
	"f1livetiming/pkg/tracker"
)

const (
	DefaultAddress           = "127.0.0.1:8080"
	DefaultBroadcastInterval = 5 * time.Second

	liveTopic       = "live"
	shutdownTimeout = 10 * time.Second
)

type StateSource interface {
	State(now time.Time) tracker.State
}

type Options struct {
	Address           string
	BroadcastInterval time.Duration
}

type Manager struct {
	r        *mux.Router
	src      StateSource
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
	live     *pubsub.PubSub[[]byte]
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]struct{}
}

func NewManager(src StateSource, opts Options, logger *slog.Logger) *Manager {
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	if opts.BroadcastInterval <= 0 {
		opts.BroadcastInterval = DefaultBroadcastInterval
	}
	m := &Manager{
		r:       mux.NewRouter(),
		src:     src,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "webserver"),
		live:    pubsub.NewPubSub[[]byte](),
		now:     time.Now,
		clients: make(map[string]struct{}),
	}
	m.rootHandlers()
	return m
}

func (m *Manager) Handler() http.Handler {
	return m.r
}

func (m *Manager) rootHandlers() {
	api := m.r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", m.stateHandler).Methods(http.MethodGet)
	api.HandleFunc("/session", m.sessionHandler).Methods(http.MethodGet)
	api.HandleFunc("/classification", m.classificationHandler).Methods(http.MethodGet)
	api.HandleFunc("/health", m.healthHandler).Methods(http.MethodGet)

	m.r.HandleFunc("/ws/live", m.liveHandler)
	m.r.HandleFunc("/live", m.pageHandler).Methods(http.MethodGet)
}

// Routes lists the registered path templates.
func (m *Manager) Routes() []string {
	var routes []string
	_ = m.r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if tpl, err := route.GetPathTemplate(); err == nil {
			routes = append(routes, tpl)
		}
		return nil
	})
	return routes
}

// Serve listens on the configured address, broadcasts the state to websocket clients and
// shuts down once ctx ends.
func (m *Manager) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.opts.Address)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", m.opts.Address)
	}
	return m.serve(ctx, ln)
}

func (m *Manager) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		Handler:      m.r,
	}

	errc := make(chan error, 1)
	go func() {
		m.logger.Info("webserver listening", "address", ln.Addr().String(), "routes", m.Routes())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	bctx, stopBroadcast := context.WithCancel(ctx)
	defer stopBroadcast()
	broadcastDone := make(chan struct{})
	go func() {
		defer close(broadcastDone)
		m.broadcastLoop(bctx)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		m.logger.Warn("webserver shutdown", "error", err)
	}
	stopBroadcast()
	<-broadcastDone
	// hijacked websocket connections are not tracked by Shutdown
	m.live.Close()
	m.logger.Info("webserver stopped")
	return serveErr
}

func (m *Manager) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(m.opts.BroadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Broadcast(); err != nil {
				m.logger.Warn("broadcast failed", "error", err)
			}
		}
	}
}

// Clients returns the number of connected websocket clients.
func (m *Manager) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
