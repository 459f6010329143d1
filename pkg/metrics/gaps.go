package metrics

import (
	"cmp"
	"slices"

	"f1livetiming/pkg/helper"
	"f1livetiming/pkg/model"
)

// Competitor is the ranking input for one driver.
type Competitor struct {
	Driver int
	// Best is the personal best lap in seconds; ranks timed sessions.
	Best float64
	// Elapsed is the race time basis in seconds, meaningful only when HasElapsed is set.
	Elapsed    float64
	HasElapsed bool
	// Laps is the number of laps behind Elapsed when it is a cumulative lap time, 0 when it
	// comes from provider intervals. Elapsed values are only compared at equal Laps.
	Laps int
	// Position is the provider-reported position, 0 when unknown.
	Position int
}

// Ranked is a competitor's place in the order with formatted gaps.
type Ranked struct {
	Driver      int
	GapToLeader string
	GapToAhead  string
}

// Gaps orders the competitors and computes gap-to-leader and gap-to-ahead.
func Gaps(cs []Competitor, st model.SessionType) []Ranked {
	if len(cs) == 0 {
		return nil
	}
	ordered := slices.Clone(cs)
	if st.IsTimed() {
		return timedGaps(ordered)
	}
	return raceGaps(ordered)
}

func timedGaps(cs []Competitor) []Ranked {
	slices.SortStableFunc(cs, func(a, b Competitor) int {
		av, bv := model.Valid(a.Best), model.Valid(b.Best)
		switch {
		case av && !bv:
			return -1
		case !av && bv:
			return 1
		case av && bv && a.Best != b.Best:
			return cmp.Compare(a.Best, b.Best)
		}
		return cmp.Compare(a.Driver, b.Driver)
	})

	out := make([]Ranked, len(cs))
	for i, c := range cs {
		out[i].Driver = c.Driver
		switch {
		case i == 0:
			out[i].GapToLeader, out[i].GapToAhead = model.Leader, model.Leader
		case !model.Valid(c.Best) || !model.Valid(cs[0].Best):
			out[i].GapToLeader, out[i].GapToAhead = model.NotAvailable, model.NotAvailable
		default:
			out[i].GapToLeader = helper.FormatGap(c.Best - cs[0].Best)
			out[i].GapToAhead = helper.FormatGap(c.Best - cs[i-1].Best)
		}
	}
	return out
}

func raceGaps(cs []Competitor) []Ranked {
	slices.SortStableFunc(cs, func(a, b Competitor) int {
		ap, bp := a.Position > 0, b.Position > 0
		switch {
		case ap && !bp:
			return -1
		case !ap && bp:
			return 1
		case ap && bp && a.Position != b.Position:
			return cmp.Compare(a.Position, b.Position)
		}
		switch {
		case a.HasElapsed && !b.HasElapsed:
			return -1
		case !a.HasElapsed && b.HasElapsed:
			return 1
		case a.HasElapsed && b.HasElapsed && a.Laps != b.Laps:
			return cmp.Compare(b.Laps, a.Laps)
		case a.HasElapsed && b.HasElapsed && a.Elapsed != b.Elapsed:
			return cmp.Compare(a.Elapsed, b.Elapsed)
		}
		return cmp.Compare(a.Driver, b.Driver)
	})

	out := make([]Ranked, len(cs))
	leader := cs[0]
	for i, c := range cs {
		out[i].Driver = c.Driver
		switch {
		case i == 0:
			out[i].GapToLeader, out[i].GapToAhead = model.Leader, model.Leader
		case !sameDistance(c, leader):
			out[i].GapToLeader, out[i].GapToAhead = helper.FormatOrdinalGap(i), model.NotAvailable
		default:
			out[i].GapToLeader = helper.FormatGap(c.Elapsed - leader.Elapsed)
			out[i].GapToAhead = model.NotAvailable
			if sameDistance(c, cs[i-1]) {
				out[i].GapToAhead = helper.FormatGap(c.Elapsed - cs[i-1].Elapsed)
			}
		}
	}
	return out
}

// sameDistance reports whether the elapsed times of a and b cover the same distance. A lapped
// car's cumulative time is not comparable with the leader's.
func sameDistance(a, b Competitor) bool {
	return a.HasElapsed && b.HasElapsed && a.Laps == b.Laps
}
