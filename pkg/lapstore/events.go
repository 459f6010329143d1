package lapstore

import (
	"time"

	"f1livetiming/pkg/model"
)

// Event is a unit of change applied by the single writer.
type Event interface {
	applyTo(s *Store)
}

// RosterEvent registers or updates drivers.
type RosterEvent struct {
	Drivers []model.Driver
}

type LapEvent struct {
	Lap model.LapRecord
}

type PositionEvent struct {
	Position model.PositionRecord
}

type IntervalEvent struct {
	Interval model.IntervalRecord
}

type StintEvent struct {
	Stint model.StintRecord
}

// ResultEvent carries a classification status ("DNF", "RETIRED", ...) and, when known,
// the classified position.
type ResultEvent struct {
	Driver   int
	Position int
	Status   string
}

// SessionEvent carries the track flag and race control message.
type SessionEvent struct {
	Flag      string
	Message   string
	Timestamp time.Time
}

// ResetEvent drops all state.
type ResetEvent struct{}

func (e RosterEvent) applyTo(s *Store) {
	for _, d := range e.Drivers {
		if d.Number == 0 {
			continue
		}
		s.history(d.Number).driver = d
	}
}

func (e LapEvent) applyTo(s *Store) {
	if e.Lap.Driver == 0 || e.Lap.LapNumber <= 0 {
		return
	}
	s.history(e.Lap.Driver).addLap(e.Lap)
}

func (e PositionEvent) applyTo(s *Store) {
	p := e.Position
	if p.Driver == 0 || p.Position <= 0 {
		return
	}
	h := s.history(p.Driver)
	if h.position != nil && p.Timestamp.Before(h.position.Timestamp) {
		return
	}
	h.position = &p
}

func (e IntervalEvent) applyTo(s *Store) {
	i := e.Interval
	if i.Driver == 0 {
		return
	}
	h := s.history(i.Driver)
	if h.interval != nil && i.Timestamp.Before(h.interval.Timestamp) {
		return
	}
	h.interval = &i
}

func (e StintEvent) applyTo(s *Store) {
	if e.Stint.Driver == 0 || e.Stint.StintID <= 0 {
		return
	}
	s.history(e.Stint.Driver).addStint(e.Stint)
}

func (e ResultEvent) applyTo(s *Store) {
	if e.Driver == 0 {
		return
	}
	h := s.history(e.Driver)
	if e.Status != "" {
		h.status = e.Status
	}
	if e.Position > 0 {
		h.resultPosition = e.Position
	}
}

func (e SessionEvent) applyTo(s *Store) {
	if e.Flag != "" {
		s.flag = e.Flag
	}
	if e.Message != "" {
		s.message = e.Message
	}
}

func (ResetEvent) applyTo(s *Store) {
	s.drivers = map[int]*history{}
	s.flag = ""
	s.message = ""
}
