package openf1

import (
	"strings"
	"time"

	"f1livetiming/pkg/helper"
	"f1livetiming/pkg/model"
)

// ToSession converts a wire session. Status is left UNKNOWN; the locator classifies it.
func ToSession(s Session) model.Session {
	out := model.Session{
		Key:      s.SessionKey,
		Name:     s.SessionName,
		Circuit:  s.CircuitShortName,
		Location: s.Location,
		Type:     model.ParseSessionType(firstNonEmpty(s.SessionName, s.SessionType)),
		Status:   model.StatusUnknown,
	}
	if s.DateStart != nil {
		out.Start = s.DateStart.UTC()
	}
	if s.DateEnd != nil {
		end := s.DateEnd.UTC()
		out.End = &end
	}
	return out
}

func ToDriver(d Driver) model.Driver {
	code := d.NameAcronym
	if code == "" {
		code = helper.GetDriverCodeName(d.FullName)
	}
	return model.Driver{
		Number:   d.DriverNumber,
		Code:     code,
		FullName: d.FullName,
		Team:     d.TeamName,
	}
}

func ToPosition(p Position) model.PositionRecord {
	return model.PositionRecord{
		Driver:    p.DriverNumber,
		Position:  p.Position,
		Timestamp: timeOrZero(p.Date),
	}
}

func ToLap(l Lap) model.LapRecord {
	return model.LapRecord{
		Driver:    l.DriverNumber,
		LapNumber: l.LapNumber,
		LapTime:   floatOrZero(l.LapDuration),
		Sectors:   [3]float64{floatOrZero(l.DurationSector1), floatOrZero(l.DurationSector2), floatOrZero(l.DurationSector3)},
		Timestamp: timeOrZero(l.DateStart),
	}
}

func ToInterval(i Interval) model.IntervalRecord {
	return model.IntervalRecord{
		Driver:      i.DriverNumber,
		GapToLeader: model.Gap(i.GapToLeader),
		GapToAhead:  model.Gap(i.Interval),
		Timestamp:   timeOrZero(i.Date),
	}
}

func ToStint(s Stint) model.StintRecord {
	out := model.StintRecord{
		Driver:         s.DriverNumber,
		StintID:        s.StintNumber,
		Compound:       s.Compound,
		LapStart:       s.LapStart,
		TyreAgeAtStart: s.TyreAgeAtStart,
	}
	if s.LapEnd != nil {
		out.LapEnd = *s.LapEnd
	}
	return out
}

// ResultStatus returns the classification status text of a result row.
func ResultStatus(r Result) string {
	switch {
	case r.Status != "":
		return strings.ToUpper(r.Status)
	case r.DNS:
		return "DNS"
	case r.DNF:
		return "DNF"
	case r.DSQ:
		return "DSQ"
	}
	return ""
}

var flags = map[string]string{
	"1": "GREEN",
	"2": "YELLOW",
	"3": "DOUBLE_YELLOW",
	"4": "GREEN",
	"5": "RED",
	"6": "CHEQUERED",
}

// Flag maps a track status code to a flag name. Labels pass through upper-cased.
func Flag(s SessionStatus) string {
	code := strings.TrimSpace(string(s.Status))
	if f, ok := flags[code]; ok {
		return f
	}
	if code == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(code)
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
