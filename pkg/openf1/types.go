package openf1

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"f1livetiming/pkg/model"
)

type Session struct {
	SessionKey       int        `json:"session_key"`
	MeetingKey       int        `json:"meeting_key"`
	SessionName      string     `json:"session_name"`
	SessionType      string     `json:"session_type"`
	CircuitShortName string     `json:"circuit_short_name"`
	Location         string     `json:"location"`
	CountryName      string     `json:"country_name"`
	DateStart        *time.Time `json:"date_start"`
	DateEnd          *time.Time `json:"date_end"`
	Year             int        `json:"year"`
}

type Driver struct {
	DriverNumber int    `json:"driver_number"`
	NameAcronym  string `json:"name_acronym"`
	FullName     string `json:"full_name"`
	TeamName     string `json:"team_name"`
	SessionKey   int    `json:"session_key"`
}

type Position struct {
	DriverNumber int        `json:"driver_number"`
	Position     int        `json:"position"`
	Date         *time.Time `json:"date"`
	SessionKey   int        `json:"session_key"`
}

type Lap struct {
	DriverNumber    int        `json:"driver_number"`
	LapNumber       int        `json:"lap_number"`
	LapDuration     *float64   `json:"lap_duration"`
	DurationSector1 *float64   `json:"duration_sector_1"`
	DurationSector2 *float64   `json:"duration_sector_2"`
	DurationSector3 *float64   `json:"duration_sector_3"`
	IsPitOutLap     bool       `json:"is_pit_out_lap"`
	DateStart       *time.Time `json:"date_start"`
	SessionKey      int        `json:"session_key"`
}

type Interval struct {
	DriverNumber int        `json:"driver_number"`
	GapToLeader  Gap        `json:"gap_to_leader"`
	Interval     Gap        `json:"interval"`
	Date         *time.Time `json:"date"`
	SessionKey   int        `json:"session_key"`
}

type Stint struct {
	DriverNumber   int    `json:"driver_number"`
	StintNumber    int    `json:"stint_number"`
	Compound       string `json:"compound"`
	LapStart       int    `json:"lap_start"`
	LapEnd         *int   `json:"lap_end"`
	TyreAgeAtStart int    `json:"tyre_age_at_start"`
	SessionKey     int    `json:"session_key"`
}

type Result struct {
	DriverNumber int    `json:"driver_number"`
	Position     *int   `json:"position"`
	NumberOfLaps int    `json:"number_of_laps"`
	DNF          bool   `json:"dnf"`
	DNS          bool   `json:"dns"`
	DSQ          bool   `json:"dsq"`
	Status       string `json:"status"`
	SessionKey   int    `json:"session_key"`
}

// SessionStatus is a track status update. Status is a numeric code ("1".."7") or a label.
type SessionStatus struct {
	Status     FlexString `json:"status"`
	Message    string     `json:"message"`
	Date       *time.Time `json:"date"`
	SessionKey int        `json:"session_key"`
}

// Gap decodes a provider gap that may be a number, a text such as "+1 LAP", or null.
type Gap model.Gap

func (g *Gap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*g = Gap{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			g.Seconds, g.Valid = f, true
			return nil
		}
		g.Text = s
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	g.Seconds, g.Valid = f, true
	return nil
}

func (g Gap) MarshalJSON() ([]byte, error) {
	switch {
	case g.Valid:
		return json.Marshal(g.Seconds)
	case g.Text != "":
		return json.Marshal(g.Text)
	}
	return []byte("null"), nil
}

// FlexString accepts a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
