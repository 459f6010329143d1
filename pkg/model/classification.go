package model

const (
	Leader       = "LEADER"
	NotAvailable = "N/A"
)

type DriverStatus string

const (
	Running DriverStatus = "RUNNING"
	Retired DriverStatus = "RETIRED"
)

type Compound string

const (
	Soft    Compound = "SOFT"
	Medium  Compound = "MEDIUM"
	Hard    Compound = "HARD"
	Inter   Compound = "INTER"
	Wet     Compound = "WET"
	Unknown Compound = "UNKNOWN"
)

type StintEntry struct {
	Compound         Compound `json:"compound"`
	StintID          int      `json:"stintId"`
	LapStartedOn     int      `json:"lapStartedOn"`
	TyreLifeAtChange int      `json:"tyreLifeAtChange"`
}

type StintPace struct {
	StintID     int      `json:"stintId"`
	Compound    Compound `json:"compound"`
	Laps        int      `json:"laps"`
	AverageLap  float64  `json:"averageLap"`
	BestLap     float64  `json:"bestLap"`
	Degradation float64  `json:"degradation"` // seconds per lap
}

type ClassificationRow struct {
	Position       int          `json:"position"`
	Driver         Driver       `json:"driver"`
	Status         DriverStatus `json:"status"`
	GapToLeader    string       `json:"gapToLeader"`
	GapToAhead     string       `json:"gapToAhead"`
	BestLap        string       `json:"bestLap"`
	LastLap        string       `json:"lastLap"`
	BestLapSeconds float64      `json:"bestLapSeconds"`
	LastLapSeconds float64      `json:"lastLapSeconds"`
	DeltaToBest    string       `json:"deltaToBest"`
	Compound       Compound     `json:"compound"`
	TyreLife       int          `json:"tyreLife"`
	PitStops       int          `json:"pitStops"`
	LapNumber      int          `json:"lapNumber"`
	StintHistory   []StintEntry `json:"stintHistory"`
	StintPace      []StintPace  `json:"stintPace"`
}
