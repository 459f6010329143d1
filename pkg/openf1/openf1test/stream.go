package openf1test

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"f1livetiming/pkg/openf1"
)

// RefuseStream makes later websocket handshakes fail with 503.
func (s *Server) RefuseStream(refuse bool) {
	s.wsMu.Lock()
	s.refuse = refuse
	s.wsMu.Unlock()
}

// Dials counts websocket handshake attempts, refused ones included.
func (s *Server) Dials() int {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return s.dials
}

// Connections counts open stream connections.
func (s *Server) Connections() int {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return len(s.conns)
}

// Subscriptions returns every subscribe message received so far.
func (s *Server) Subscriptions() []openf1.Subscribe {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return append([]openf1.Subscribe(nil), s.subs...)
}

// Push sends a frame of the given topic to every open connection.
func (s *Server) Push(topic string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(openf1.Frame{Type: topic, Data: raw})
	if err != nil {
		return err
	}
	return s.PushRaw(frame)
}

// PushRaw sends msg verbatim to every open connection.
func (s *Server) PushRaw(msg []byte) error {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	for c := range s.conns {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			return err
		}
	}
	return nil
}

// DropStream closes every open stream connection.
func (s *Server) DropStream() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	for c := range s.conns {
		_ = c.Close()
		delete(s.conns, c)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.wsMu.Lock()
	s.dials++
	refuse := s.refuse
	s.wsMu.Unlock()
	if refuse {
		http.Error(w, "stream unavailable", http.StatusServiceUnavailable)
		return
	}

	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.wsMu.Lock()
	s.conns[c] = struct{}{}
	s.wsMu.Unlock()

	defer func() {
		s.wsMu.Lock()
		delete(s.conns, c)
		s.wsMu.Unlock()
		_ = c.Close()
	}()
	for {
		var sub openf1.Subscribe
		if err := c.ReadJSON(&sub); err != nil {
			return
		}
		s.wsMu.Lock()
		s.subs = append(s.subs, sub)
		s.wsMu.Unlock()
	}
}
