// Package openf1test provides an in-process fake of the OpenF1 REST API and live stream.
package openf1test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"f1livetiming/pkg/openf1"
)

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	sessions  []openf1.Session
	drivers   []openf1.Driver
	positions []openf1.Position
	laps      []openf1.Lap
	intervals []openf1.Interval
	stints    []openf1.Stint
	results   []openf1.Result
	failures  map[string]int
	requests  map[string]int

	wsMu     sync.Mutex
	conns    map[*websocket.Conn]struct{}
	subs     []openf1.Subscribe
	refuse   bool
	dials    int
	upgrader websocket.Upgrader
}

// New starts a fake provider that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		failures: map[string]int{},
		requests: map[string]int{},
		conns:    map[*websocket.Conn]struct{}{},
	}
	r := mux.NewRouter()
	r.HandleFunc("/v1/live", s.handleStream)
	r.HandleFunc("/v1/{resource}", s.handleResource).Methods(http.MethodGet)
	s.Server = httptest.NewServer(r)
	t.Cleanup(func() {
		s.DropStream()
		s.Close()
	})
	return s
}

// BaseURL is the REST root to hand to openf1.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/v1"
}

// StreamURL is the websocket endpoint.
func (s *Server) StreamURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/v1/live"
}

func (s *Server) SetSessions(v ...openf1.Session) { s.mu.Lock(); s.sessions = v; s.mu.Unlock() }
func (s *Server) SetDrivers(v ...openf1.Driver)   { s.mu.Lock(); s.drivers = v; s.mu.Unlock() }
func (s *Server) SetPositions(v ...openf1.Position) {
	s.mu.Lock()
	s.positions = v
	s.mu.Unlock()
}
func (s *Server) SetLaps(v ...openf1.Lap) { s.mu.Lock(); s.laps = v; s.mu.Unlock() }
func (s *Server) SetIntervals(v ...openf1.Interval) {
	s.mu.Lock()
	s.intervals = v
	s.mu.Unlock()
}
func (s *Server) SetStints(v ...openf1.Stint)   { s.mu.Lock(); s.stints = v; s.mu.Unlock() }
func (s *Server) SetResults(v ...openf1.Result) { s.mu.Lock(); s.results = v; s.mu.Unlock() }

// FailWith makes resource answer with status until cleared with status 0.
func (s *Server) FailWith(resource string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, resource)
		return
	}
	s.failures[resource] = status
}

// Requests returns how many times resource was requested.
func (s *Server) Requests(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[resource]
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	filters := parseFilters(r.URL.RawQuery)

	s.mu.Lock()
	s.requests[resource]++
	status := s.failures[resource]
	var body any
	switch resource {
	case "sessions":
		var out []openf1.Session
		for _, sess := range s.sessions {
			if matchSession(sess, filters) {
				out = append(out, sess)
			}
		}
		body = out
	case "drivers":
		body = s.drivers
	case "position":
		body = s.positions
	case "laps":
		body = s.laps
	case "intervals":
		body = s.intervals
	case "stints":
		body = s.stints
	case "session_result":
		body = s.results
	default:
		status = http.StatusNotFound
	}
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		body = []struct{}{}
	}
	_ = json.NewEncoder(w).Encode(body)
}

type filter struct {
	field, op, value string
}

func parseFilters(raw string) []filter {
	var out []filter
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		for _, op := range []string{"<=", ">=", "<", ">", "="} {
			if idx := strings.Index(part, op); idx > 0 {
				value, err := url.QueryUnescape(part[idx+len(op):])
				if err != nil {
					value = part[idx+len(op):]
				}
				out = append(out, filter{field: part[:idx], op: op, value: value})
				break
			}
		}
	}
	return out
}

func matchSession(s openf1.Session, filters []filter) bool {
	for _, f := range filters {
		switch f.field {
		case "session_key":
			key, _ := strconv.Atoi(f.value)
			if s.SessionKey != key {
				return false
			}
		case "date_start", "date_end":
			v, err := time.Parse(time.RFC3339, f.value)
			if err != nil {
				return false
			}
			field := s.DateStart
			if f.field == "date_end" {
				field = s.DateEnd
			}
			if field == nil || !compare(*field, f.op, v) {
				return false
			}
		}
	}
	return true
}

func compare(a time.Time, op string, b time.Time) bool {
	switch op {
	case "<=":
		return !a.After(b)
	case ">=":
		return !a.Before(b)
	case "<":
		return a.Before(b)
	case ">":
		return a.After(b)
	}
	return a.Equal(b)
}
