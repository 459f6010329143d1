package webserver

import (
	"encoding/json"
	"net/http"

	"f1livetiming/pkg/model"
)

type healthResponse struct {
	Health  model.Health `json:"health"`
	Clients int          `json:"clients"`
}

func (m *Manager) stateHandler(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.src.State(m.now()))
}

func (m *Manager) sessionHandler(w http.ResponseWriter, _ *http.Request) {
	st := m.src.State(m.now())
	if st.Session == nil {
		m.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no session"})
		return
	}
	m.writeJSON(w, http.StatusOK, st.Session)
}

func (m *Manager) classificationHandler(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.src.State(m.now()).Rows)
}

func (m *Manager) healthHandler(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, healthResponse{
		Health:  m.src.State(m.now()).Health,
		Clients: m.Clients(),
	})
}

func (m *Manager) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Debug("write response", "error", err)
	}
}
