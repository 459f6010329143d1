package metrics

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"f1livetiming/pkg/model"
)

// minPaceLaps is the number of timed laps a stint needs before a degradation slope is fitted.
const minPaceLaps = 3

// NormalizeCompound maps a provider compound label to a known compound.
func NormalizeCompound(label string) model.Compound {
	// a Caser is stateful, so one per call
	c := cases.Upper(language.Und).String(strings.TrimSpace(label))
	switch {
	case c == "":
		return model.Unknown
	case strings.Contains(c, "SOFT"):
		return model.Soft
	case strings.Contains(c, "MEDIUM"):
		return model.Medium
	case strings.Contains(c, "HARD"):
		return model.Hard
	case strings.Contains(c, "INTER"):
		return model.Inter
	case strings.Contains(c, "WET"):
		return model.Wet
	}
	return model.Unknown
}

func byLapNumber(laps []model.LapRecord) []model.LapRecord {
	sorted := slices.Clone(laps)
	slices.SortStableFunc(sorted, func(a, b model.LapRecord) int {
		return a.LapNumber - b.LapNumber
	})
	return sorted
}

// StintHistory lists every tyre change: an entry starts whenever the normalized compound or
// the stint id differs from the previous entry. Laps without a compound are skipped.
func StintHistory(laps []model.LapRecord) []model.StintEntry {
	history := []model.StintEntry{}
	for _, l := range byLapNumber(laps) {
		if strings.TrimSpace(l.Compound) == "" {
			continue
		}
		compound := NormalizeCompound(l.Compound)
		if n := len(history); n > 0 && history[n-1].Compound == compound && history[n-1].StintID == l.StintID {
			continue
		}
		history = append(history, model.StintEntry{
			Compound:         compound,
			StintID:          l.StintID,
			LapStartedOn:     l.LapNumber,
			TyreLifeAtChange: l.TyreLife,
		})
	}
	return history
}

// PitStops is the highest stint id minus one, never negative.
func PitStops(laps []model.LapRecord) int {
	maxStint := 0
	for _, l := range laps {
		maxStint = max(maxStint, l.StintID)
	}
	return max(0, maxStint-1)
}

// StintPace summarizes the timed laps of each stint. Degradation is the least squares slope
// of lap time over lap number in seconds per lap.
func StintPace(laps []model.LapRecord) []model.StintPace {
	type group struct {
		compound model.Compound
		laps     []float64
		times    []float64
	}
	groups := map[int]*group{}
	var ids []int
	for _, l := range byLapNumber(laps) {
		if !l.HasLapTime() {
			continue
		}
		g, ok := groups[l.StintID]
		if !ok {
			g = &group{compound: model.Unknown}
			groups[l.StintID] = g
			ids = append(ids, l.StintID)
		}
		if g.compound == model.Unknown {
			g.compound = NormalizeCompound(l.Compound)
		}
		g.laps = append(g.laps, float64(l.LapNumber))
		g.times = append(g.times, l.LapTime)
	}
	slices.Sort(ids)

	out := make([]model.StintPace, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		p := model.StintPace{
			StintID:    id,
			Compound:   g.compound,
			Laps:       len(g.times),
			AverageLap: stat.Mean(g.times, nil),
			BestLap:    floats.Min(g.times),
		}
		if len(g.times) >= minPaceLaps {
			_, p.Degradation = stat.LinearRegression(g.laps, g.times, nil, false)
		}
		out = append(out, p)
	}
	return out
}
