package model

import (
	"fmt"
	"strings"
	"time"
)

type SessionType string

const (
	Practice   SessionType = "practice"
	Qualifying SessionType = "qualifying"
	Sprint     SessionType = "sprint"
	Race       SessionType = "race"
)

// ParseSessionType maps a provider session label ("Practice 2", "Sprint Qualifying",
// "Race", ...) to a SessionType. Unknown labels are treated as practice.
func ParseSessionType(label string) SessionType {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(l, "qualifying"), strings.Contains(l, "shootout"):
		return Qualifying
	case strings.Contains(l, "sprint"):
		return Sprint
	case strings.Contains(l, "race"):
		return Race
	}
	return Practice
}

// IsTimed reports whether the session is ranked by personal best lap.
func (st SessionType) IsTimed() bool {
	return st == Practice || st == Qualifying
}

type Status string

const (
	StatusUnknown   Status = "UNKNOWN"
	StatusUpcoming  Status = "UPCOMING"
	StatusLive      Status = "LIVE"
	StatusCompleted Status = "COMPLETED"
)

type Session struct {
	Key       int           `json:"sessionKey"`
	Name      string        `json:"sessionName"`
	Circuit   string        `json:"circuit"`
	Location  string        `json:"location"`
	Type      SessionType   `json:"sessionType"`
	Start     time.Time     `json:"start"`
	End       *time.Time    `json:"end,omitempty"`
	Status    Status        `json:"status"`
	Countdown time.Duration `json:"countdown"`
}

func (s Session) String() string {
	return fmt.Sprintf("  ▸ Session: %s\n  ▸ Circuit: %s (%s)\n  ▸ Start: %s", s.Name, s.Circuit, s.Location, s.Start.UTC().Format(time.RFC1123))
}

type Health string

const (
	HealthIdle         Health = "idle"
	HealthLive         Health = "live"
	HealthPolling      Health = "polling"
	HealthDisconnected Health = "disconnected"
)

type Driver struct {
	Number   int    `json:"driverNumber"`
	Code     string `json:"code"`
	FullName string `json:"fullName"`
	Team     string `json:"team"`
}
