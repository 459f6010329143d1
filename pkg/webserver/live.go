package webserver

import (
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"f1livetiming/pkg/caster"
	"f1livetiming/pkg/tracker"
)

const writeTimeout = 5 * time.Second

// Broadcast sends the current state to every websocket client.
func (m *Manager) Broadcast() error {
	b, err := caster.JSONCaster[tracker.State]{}.To(m.src.State(m.now()))
	if err != nil {
		return err
	}
	m.live.Publish(liveTopic, b)
	return nil
}

func (m *Manager) liveHandler(w http.ResponseWriter, r *http.Request) {
	c, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade", "error", err)
		return
	}
	id := uuid.NewString()
	logger := m.logger.With("client", id)

	frames := m.live.Subscribe(liveTopic)
	m.mu.Lock()
	m.clients[id] = struct{}{}
	m.mu.Unlock()
	logger.Debug("websocket client connected")

	defer func() {
		m.mu.Lock()
		delete(m.clients, id)
		m.mu.Unlock()
		_ = c.Close()
		logger.Debug("websocket client gone")
	}()

	// the reader only notices the client leaving
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				m.live.Unsubscribe(liveTopic, frames)
				return
			}
		}
	}()

	// new clients get the current state right away
	if first, err := (caster.JSONCaster[tracker.State]{}).To(m.src.State(m.now())); err == nil {
		if err := m.write(c, first); err != nil {
			return
		}
	}
	for msg := range frames {
		if err := m.write(c, msg); err != nil {
			logger.Debug("websocket write", "error", err)
			return
		}
	}
}

func (m *Manager) write(c *websocket.Conn, msg []byte) error {
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteMessage(websocket.TextMessage, msg)
}

type pageData struct {
	WebSocketURL string
	Interval     int
}

func (m *Manager) pageHandler(w http.ResponseWriter, r *http.Request) {
	scheme := "ws://"
	if r.TLS != nil {
		scheme = "wss://"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := liveTemplate.Execute(w, pageData{
		WebSocketURL: scheme + r.Host + "/ws/live",
		Interval:     int(m.opts.BroadcastInterval.Seconds()),
	})
	if err != nil {
		m.logger.Warn("render live page", "error", err)
	}
}

var liveTemplate = template.Must(template.New("live").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>F1 Live Timing</title>
  <style>
    body { font-family: monospace; background: #15151e; color: #eee; }
    table { border-collapse: collapse; }
    td, th { padding: 2px 10px; text-align: left; }
    tr:nth-child(even) { background: #24242e; }
  </style>
</head>
<body>
  <h3 id="header">waiting for data (every {{ .Interval }}s)</h3>
  <table>
    <thead><tr>
      <th>POS</th><th>DRIVER</th><th>TEAM</th><th>GAP</th><th>INT</th><th>BEST</th>
      <th>LAST</th><th>DELTA</th><th>TYRE</th><th>AGE</th><th>PIT</th>
    </tr></thead>
    <tbody id="rows"></tbody>
  </table>
  <script>
    const socket = new WebSocket('{{ .WebSocketURL }}');
    const header = document.getElementById('header');
    const rows = document.getElementById('rows');

    function cell(tr, text) {
      const td = document.createElement('td');
      td.textContent = text;
      tr.appendChild(td);
    }

    socket.addEventListener('message', (event) => {
      const state = JSON.parse(event.data);
      const s = state.session;
      header.textContent = s ? s.sessionName + ' @ ' + s.circuit + ' [' + s.status + '] feed: ' + state.health : 'no session';
      rows.replaceChildren();
      for (const r of state.rows) {
        const tr = document.createElement('tr');
        for (const v of [r.position, r.driver.code, r.driver.team, r.gapToLeader, r.gapToAhead,
                         r.bestLap, r.lastLap, r.deltaToBest, r.compound, r.tyreLife, r.pitStops]) {
          cell(tr, v);
        }
        rows.appendChild(tr);
      }
    });

    socket.addEventListener('close', () => { header.textContent += ' (disconnected)'; });
  </script>
</body>
</html>
`))
