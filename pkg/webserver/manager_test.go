package webserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/tracker"
)

type stubState struct {
	mu    sync.Mutex
	state tracker.State
}

func (s *stubState) set(st tracker.State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *stubState) State(now time.Time) tracker.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.UpdatedAt = now
	return st
}

func liveState(health model.Health) tracker.State {
	return tracker.State{
		Session: &model.Session{Key: 9472, Name: "Race", Circuit: "Sakhir", Type: model.Race, Status: model.StatusLive},
		Health:  health,
		Rows: []model.ClassificationRow{
			{Position: 1, Driver: model.Driver{Number: 1, Code: "VER"}, GapToLeader: model.Leader, GapToAhead: model.Leader},
			{Position: 2, Driver: model.Driver{Number: 11, Code: "PER"}, GapToLeader: "+22.457", GapToAhead: "+22.457"},
		},
	}
}

func newTestServer(t *testing.T, src StateSource) (*Manager, *httptest.Server) {
	t.Helper()
	m := NewManager(src, Options{BroadcastInterval: time.Hour}, logging.NewNop())
	srv := httptest.NewServer(m.Handler())
	t.Cleanup(func() {
		m.live.Close()
		srv.Close()
	})
	return m, srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestStateEndpoints(t *testing.T) {
	src := &stubState{state: liveState(model.HealthLive)}
	_, srv := newTestServer(t, src)

	var st tracker.State
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/state", &st))
	require.NotNil(t, st.Session)
	assert.Equal(t, 9472, st.Session.Key)
	assert.Len(t, st.Rows, 2)

	var session model.Session
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/session", &session))
	assert.Equal(t, "Sakhir", session.Circuit)

	var rows []model.ClassificationRow
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/classification", &rows))
	assert.Equal(t, "PER", rows[1].Driver.Code)
	assert.Equal(t, "+22.457", rows[1].GapToLeader)

	var health healthResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/health", &health))
	assert.Equal(t, model.HealthLive, health.Health)
	assert.Zero(t, health.Clients)
}

func TestSessionEndpointWithoutSession(t *testing.T) {
	_, srv := newTestServer(t, &stubState{state: tracker.State{Health: model.HealthIdle}})

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/session", &body))
	assert.Equal(t, "no session", body["error"])

	var rows []model.ClassificationRow
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/classification", &rows))
}

func TestMethodNotAllowed(t *testing.T) {
	_, srv := newTestServer(t, &stubState{})
	resp, err := http.Post(srv.URL+"/api/state", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readState(t *testing.T, c *websocket.Conn) tracker.State {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	var st tracker.State
	require.NoError(t, c.ReadJSON(&st))
	return st
}

func TestLiveBroadcastReachesEveryClient(t *testing.T) {
	src := &stubState{state: liveState(model.HealthLive)}
	m, srv := newTestServer(t, src)

	a, b := dial(t, srv), dial(t, srv)
	assert.Equal(t, model.HealthLive, readState(t, a).Health)
	assert.Equal(t, model.HealthLive, readState(t, b).Health)
	require.Eventually(t, func() bool { return m.Clients() == 2 }, 3*time.Second, 10*time.Millisecond)

	src.set(liveState(model.HealthPolling))
	require.NoError(t, m.Broadcast())

	assert.Equal(t, model.HealthPolling, readState(t, a).Health)
	assert.Equal(t, model.HealthPolling, readState(t, b).Health)
}

func TestLiveClientLeaving(t *testing.T) {
	m, srv := newTestServer(t, &stubState{state: liveState(model.HealthLive)})

	c := dial(t, srv)
	readState(t, c)
	require.Eventually(t, func() bool { return m.Clients() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return m.Clients() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestLivePage(t *testing.T) {
	_, srv := newTestServer(t, &stubState{})
	resp, err := http.Get(srv.URL + "/live")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestServeShutsDownWithContext(t *testing.T) {
	m := NewManager(&stubState{state: liveState(model.HealthLive)}, Options{BroadcastInterval: 20 * time.Millisecond}, logging.NewNop())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.serve(ctx, ln) }()

	url := "ws://" + ln.Addr().String() + "/ws/live"
	var c *websocket.Conn
	require.Eventually(t, func() bool {
		c, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)
	defer c.Close()

	// the initial frame and at least one ticker broadcast
	readState(t, c)
	readState(t, c)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}

	_, _, err = c.ReadMessage()
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	m := NewManager(&stubState{}, Options{}, logging.NewNop())
	routes := m.Routes()
	for _, r := range []string{"/api/state", "/api/session", "/api/classification", "/api/health", "/ws/live", "/live"} {
		assert.Contains(t, routes, r)
	}
	assert.Equal(t, DefaultBroadcastInterval, m.opts.BroadcastInterval)
}
