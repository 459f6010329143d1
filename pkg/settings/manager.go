package settings

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"f1livetiming/pkg/model"
)

// Types lists the session types a chat can subscribe to, in display order.
var Types = []model.SessionType{model.Practice, model.Qualifying, model.Sprint, model.Race}

type Subscriber struct {
	ChatID int64
	Name   string
}

// Subscriptions tells which session types a chat is notified about.
type Subscriptions map[model.SessionType]bool

func AllEnabled() Subscriptions {
	s := Subscriptions{}
	for _, st := range Types {
		s[st] = true
	}
	return s
}

func AllDisabled() Subscriptions {
	s := Subscriptions{}
	for _, st := range Types {
		s[st] = false
	}
	return s
}

func (s Subscriptions) enabledInt(st model.SessionType) int {
	if s[st] {
		return 1
	}
	return 0
}

func (s Subscriptions) String() string {
	status := make([]string, 0, len(Types))
	for _, st := range Types {
		status = append(status, fmt.Sprintf("%s %s", symbolStatus(s[st]), st))
	}
	return strings.Join(status, "\n")
}

func symbolStatus(enabled bool) string {
	if enabled {
		return "🔔"
	}
	return "🔕"
}

type Manager struct {
	db *sql.DB
	mu sync.Mutex
}

// NewManager opens (creating if needed) the subscriptions database at path.
func NewManager(path string) (*Manager, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if _, err := db.Exec(buildCreateSubscribersTable()); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init database")
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Close()
}

// Subscribe enables the given session types for the chat, leaving the others as they are.
// An empty name keeps the stored one.
func (m *Manager) Subscribe(chatID int64, name string, types ...model.SessionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.subscriptions(chatID)
	if err != nil {
		return err
	}
	if name == "" {
		if name, err = m.name(chatID); err != nil {
			return err
		}
	}
	for _, st := range types {
		if _, ok := columns[st]; !ok {
			return fmt.Errorf("unknown session type %q", st)
		}
		s[st] = true
	}
	return m.save(chatID, name, s)
}

// Toggle flips one session type for the chat and returns the new value.
func (m *Manager) Toggle(chatID int64, st model.SessionType) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := columns[st]; !ok {
		return false, fmt.Errorf("unknown session type %q", st)
	}
	s, err := m.subscriptions(chatID)
	if err != nil {
		return false, err
	}
	s[st] = !s[st]

	name, err := m.name(chatID)
	if err != nil {
		return false, err
	}
	if err := m.save(chatID, name, s); err != nil {
		return false, err
	}
	return s[st], nil
}

func (m *Manager) Subscriptions(chatID int64) (Subscriptions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscriptions(chatID)
}

// ListSubscribers returns the chats subscribed to st, ordered by chat id.
func (m *Manager) ListSubscribers(st model.SessionType) ([]Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, read, err := buildSelectSubscribersCommand(st)
	if err != nil {
		return nil, err
	}
	rows, err := m.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "list subscribers")
	}
	return read(rows)
}

func (m *Manager) subscriptions(chatID int64) (Subscriptions, error) {
	query, read := buildSelectChatCommand()
	rows, err := m.db.Query(query, chatID)
	if err != nil {
		return AllDisabled(), errors.Wrap(err, "read subscriptions")
	}
	return read(rows)
}

func (m *Manager) name(chatID int64) (string, error) {
	var name string
	err := m.db.QueryRow(buildSelectNameCommand(), chatID).Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrap(err, "read chat name")
	}
	return name, nil
}

func (m *Manager) save(chatID int64, name string, s Subscriptions) error {
	stmt, args := buildUpsertChatCommand(chatID, name, s)
	if _, err := m.db.Exec(stmt, args...); err != nil {
		return errors.Wrap(err, "update subscriptions")
	}
	return nil
}
