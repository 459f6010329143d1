package metrics

import (
	"strings"

	"f1livetiming/pkg/helper"
	"f1livetiming/pkg/lapstore"
	"f1livetiming/pkg/model"
)

var retiredMarkers = []string{"RETIRED", "DNF", "DNS"}

// IsRetired reports whether a provider status text marks the driver out of the session.
func IsRetired(status string) bool {
	s := strings.ToUpper(status)
	for _, m := range retiredMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Classify builds the ranked classification of a snapshot. Running drivers take positions
// 1..R with gaps, retired drivers follow with "N/A" gaps. When nobody is running the retired
// drivers are ranked with gaps instead.
func Classify(snap lapstore.Snapshot, st model.SessionType) []model.ClassificationRow {
	var running, retired []lapstore.DriverSnapshot
	for _, d := range snap.Drivers {
		if IsRetired(d.Status) {
			retired = append(retired, d)
		} else {
			running = append(running, d)
		}
	}
	if len(running) == 0 {
		running, retired = retired, nil
	}

	byNumber := make(map[int]lapstore.DriverSnapshot, len(snap.Drivers))
	for _, d := range snap.Drivers {
		byNumber[d.Driver.Number] = d
	}

	rows := make([]model.ClassificationRow, 0, len(snap.Drivers))
	for _, r := range Gaps(competitors(running, st), st) {
		rows = append(rows, buildRow(byNumber[r.Driver], r))
	}
	for _, r := range Gaps(competitors(retired, st), st) {
		r.GapToLeader, r.GapToAhead = model.NotAvailable, model.NotAvailable
		rows = append(rows, buildRow(byNumber[r.Driver], r))
	}
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

func competitors(ds []lapstore.DriverSnapshot, st model.SessionType) []Competitor {
	cs := make([]Competitor, len(ds))
	for i, d := range ds {
		cs[i] = Competitor{Driver: d.Driver.Number}
		if best, _, ok := BestAndLast(d.Laps); ok {
			cs[i].Best = best.LapTime
		}
		if d.Position != nil {
			cs[i].Position = d.Position.Position
		}
	}
	if !st.IsTimed() {
		raceElapsed(ds, cs)
	}
	return cs
}

// raceElapsed fills the elapsed basis. Provider intervals are used when every driver but the
// leader reports one; numeric gaps become elapsed and text gaps ("+1 LAP") stay unknown.
// Otherwise the cumulative lap time of drivers with timed laps is used, compared only between
// drivers with the same number of timed laps.
func raceElapsed(ds []lapstore.DriverSnapshot, cs []Competitor) {
	missing := -1
	useIntervals := len(ds) > 1
	for i, d := range ds {
		if d.Interval != nil && (d.Interval.GapToLeader.Valid || d.Interval.GapToLeader.Text != "") {
			continue
		}
		if missing >= 0 {
			useIntervals = false
			break
		}
		missing = i
	}

	if !useIntervals {
		for i, d := range ds {
			cs[i].Elapsed, cs[i].HasElapsed, cs[i].Laps = d.Elapsed, d.TimedLaps > 0, d.TimedLaps
		}
		return
	}

	for i, d := range ds {
		if i == missing {
			continue
		}
		g := d.Interval.GapToLeader
		cs[i].Elapsed, cs[i].HasElapsed = g.Seconds, g.Valid
	}
	if missing >= 0 && isFrontRunner(cs, missing) {
		cs[missing].Elapsed, cs[missing].HasElapsed = 0, true
	}
}

// isFrontRunner reports whether cs[idx] would be ranked first by position, or whether no
// positions are known at all.
func isFrontRunner(cs []Competitor, idx int) bool {
	best := 0
	for _, c := range cs {
		if c.Position > 0 && (best == 0 || c.Position < best) {
			best = c.Position
		}
	}
	return best == 0 || cs[idx].Position == best
}

func buildRow(d lapstore.DriverSnapshot, r Ranked) model.ClassificationRow {
	row := model.ClassificationRow{
		Driver:       d.Driver,
		Status:       model.Running,
		GapToLeader:  r.GapToLeader,
		GapToAhead:   r.GapToAhead,
		BestLap:      model.NotAvailable,
		LastLap:      model.NotAvailable,
		DeltaToBest:  DeltaToBest(d.Laps),
		Compound:     model.Unknown,
		PitStops:     PitStops(d.Laps),
		StintHistory: StintHistory(d.Laps),
		StintPace:    StintPace(d.Laps),
	}
	if IsRetired(d.Status) {
		row.Status = model.Retired
	}
	if best, last, ok := BestAndLast(d.Laps); ok {
		row.BestLapSeconds, row.LastLapSeconds = best.LapTime, last.LapTime
		row.BestLap, row.LastLap = helper.FormatLapTime(best.LapTime), helper.FormatLapTime(last.LapTime)
	}

	latest, hasLap := latestLap(d.Laps)
	if hasLap {
		row.LapNumber = latest.LapNumber
	}
	switch {
	case hasLap && latest.Compound != "":
		row.Compound, row.TyreLife = NormalizeCompound(latest.Compound), latest.TyreLife
	case len(d.Stints) > 0:
		st := d.Stints[len(d.Stints)-1]
		row.Compound, row.TyreLife = NormalizeCompound(st.Compound), st.TyreAgeAtStart
		if hasLap && st.Covers(latest.LapNumber) {
			row.TyreLife = st.TyreLifeOn(latest.LapNumber)
		}
	}
	for _, st := range d.Stints {
		row.PitStops = max(row.PitStops, st.StintID-1)
	}
	return row
}
