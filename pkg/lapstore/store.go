package lapstore

import (
	"slices"
	"sync/atomic"
	"time"

	"f1livetiming/pkg/model"
)

const (
	DefaultLapWindow   = 10
	DefaultStintWindow = 5
)

type Options struct {
	LapWindow   int
	StintWindow int
}

// DriverSnapshot is one driver's retained history. Laps are ordered by lap number and
// Stints by stint id. Elapsed sums every timed lap seen, trimmed ones included, and
// TimedLaps counts them.
type DriverSnapshot struct {
	Driver    model.Driver          `json:"driver"`
	Laps      []model.LapRecord     `json:"laps"`
	Stints    []model.StintRecord   `json:"stints"`
	Position  *model.PositionRecord `json:"position,omitempty"`
	Interval  *model.IntervalRecord `json:"interval,omitempty"`
	Status    string                `json:"status,omitempty"`
	Elapsed   float64               `json:"elapsed"`
	TimedLaps int                   `json:"timedLaps"`
}

// Snapshot is the published store state with drivers ordered by car number.
type Snapshot struct {
	Drivers   []DriverSnapshot `json:"drivers"`
	Flag      string           `json:"flag,omitempty"`
	Message   string           `json:"message,omitempty"`
	Version   uint64           `json:"version"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Drivers = make([]DriverSnapshot, len(s.Drivers))
	for i, d := range s.Drivers {
		c := d
		c.Laps = slices.Clone(d.Laps)
		c.Stints = slices.Clone(d.Stints)
		if d.Position != nil {
			p := *d.Position
			c.Position = &p
		}
		if d.Interval != nil {
			iv := *d.Interval
			c.Interval = &iv
		}
		out.Drivers[i] = c
	}
	return out
}

func (s Snapshot) Driver(number int) (DriverSnapshot, bool) {
	for _, d := range s.Drivers {
		if d.Driver.Number == number {
			return d, true
		}
	}
	return DriverSnapshot{}, false
}

// Store is the bounded in-memory history of one session. Apply must only be called from a
// single goroutine; Snapshot is safe from any goroutine and never blocks the writer.
type Store struct {
	opts      Options
	drivers   map[int]*history
	flag      string
	message   string
	version   uint64
	published atomic.Pointer[Snapshot]
	now       func() time.Time
}

func New(opts Options) *Store {
	if opts.LapWindow <= 0 {
		opts.LapWindow = DefaultLapWindow
	}
	if opts.StintWindow <= 0 {
		opts.StintWindow = DefaultStintWindow
	}
	s := &Store{
		opts:    opts,
		drivers: map[int]*history{},
		now:     time.Now,
	}
	s.published.Store(&Snapshot{})
	return s
}

func (s *Store) history(number int) *history {
	h, ok := s.drivers[number]
	if !ok {
		h = newHistory(number, s.opts.LapWindow, s.opts.StintWindow)
		s.drivers[number] = h
	}
	return h
}

// Apply mutates the store and publishes a new snapshot.
func (s *Store) Apply(events ...Event) {
	if len(events) == 0 {
		return
	}
	for _, e := range events {
		if e != nil {
			e.applyTo(s)
		}
	}
	s.publish()
}

func (s *Store) publish() {
	s.version++
	snap := &Snapshot{
		Drivers:   make([]DriverSnapshot, 0, len(s.drivers)),
		Flag:      s.flag,
		Message:   s.message,
		Version:   s.version,
		UpdatedAt: s.now(),
	}
	for _, h := range s.drivers {
		snap.Drivers = append(snap.Drivers, h.snapshot())
	}
	slices.SortFunc(snap.Drivers, func(a, b DriverSnapshot) int {
		return a.Driver.Number - b.Driver.Number
	})
	s.published.Store(snap)
}

// Snapshot returns an independent copy of the latest published state.
func (s *Store) Snapshot() Snapshot {
	return s.published.Load().Clone()
}
