package metrics

import (
	"f1livetiming/pkg/helper"
	"f1livetiming/pkg/model"
)

// BestAndLast returns the fastest valid lap and the valid lap with the highest lap number.
// ok is false when no lap carries a valid time.
func BestAndLast(laps []model.LapRecord) (best, last model.LapRecord, ok bool) {
	for _, l := range laps {
		if !l.HasLapTime() {
			continue
		}
		if !ok {
			best, last, ok = l, l, true
			continue
		}
		if l.LapTime < best.LapTime || (l.LapTime == best.LapTime && l.LapNumber < best.LapNumber) {
			best = l
		}
		if l.LapNumber > last.LapNumber {
			last = l
		}
	}
	return best, last, ok
}

// DeltaToBest is last minus best, "N/A" below two timed laps.
func DeltaToBest(laps []model.LapRecord) string {
	timed := 0
	for _, l := range laps {
		if l.HasLapTime() {
			timed++
		}
	}
	if timed < 2 {
		return model.NotAvailable
	}
	best, last, _ := BestAndLast(laps)
	return helper.FormatDelta(last.LapTime, best.LapTime)
}

func latestLap(laps []model.LapRecord) (model.LapRecord, bool) {
	var out model.LapRecord
	found := false
	for _, l := range laps {
		if !found || l.LapNumber > out.LapNumber {
			out, found = l, true
		}
	}
	return out, found
}
