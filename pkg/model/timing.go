package model

import (
	"math"
	"time"
)

// Valid reports whether t (seconds) holds a usable timing value.
func Valid(t float64) bool {
	return t > 0 && !math.IsNaN(t) && !math.IsInf(t, 0)
}

type LapRecord struct {
	Driver    int        `json:"driverNumber"`
	LapNumber int        `json:"lapNumber"`
	LapTime   float64    `json:"lapTime"`
	Sectors   [3]float64 `json:"sectors"`
	Compound  string     `json:"compound"`
	TyreLife  int        `json:"tyreLife"`
	StintID   int        `json:"stintId"`
	Timestamp time.Time  `json:"timestamp"`
}

func (l LapRecord) HasLapTime() bool {
	return Valid(l.LapTime)
}

type PositionRecord struct {
	Driver    int       `json:"driverNumber"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// Gap is a provider-reported time gap: numeric seconds, a text such as "+1 LAP", or absent.
type Gap struct {
	Seconds float64 `json:"seconds"`
	Valid   bool    `json:"valid"`
	Text    string  `json:"text,omitempty"`
}

type IntervalRecord struct {
	Driver      int       `json:"driverNumber"`
	GapToLeader Gap       `json:"gapToLeader"`
	GapToAhead  Gap       `json:"gapToAhead"`
	Timestamp   time.Time `json:"timestamp"`
}

type StintRecord struct {
	Driver         int    `json:"driverNumber"`
	StintID        int    `json:"stintId"`
	Compound       string `json:"compound"`
	LapStart       int    `json:"lapStart"`
	LapEnd         int    `json:"lapEnd"` // 0 while the stint is open
	TyreAgeAtStart int    `json:"tyreAgeAtStart"`
}

// Covers reports whether lap belongs to the stint.
func (s StintRecord) Covers(lap int) bool {
	if lap < s.LapStart {
		return false
	}
	return s.LapEnd == 0 || lap <= s.LapEnd
}

// TyreLifeOn returns the tyre age on the given lap of the stint.
func (s StintRecord) TyreLifeOn(lap int) int {
	return s.TyreAgeAtStart + lap - s.LapStart
}
