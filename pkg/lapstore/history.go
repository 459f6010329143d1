package lapstore

import (
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/queues"
)

type history struct {
	driver         model.Driver
	laps           *queues.Ring[model.LapRecord]
	stints         *queues.Ring[model.StintRecord]
	position       *model.PositionRecord
	interval       *model.IntervalRecord
	status         string
	resultPosition int
	elapsed        float64
	timedLaps      int
}

func newHistory(number, lapWindow, stintWindow int) *history {
	return &history{
		driver: model.Driver{Number: number},
		laps:   queues.NewRing[model.LapRecord](lapWindow),
		stints: queues.NewRing[model.StintRecord](stintWindow),
	}
}

func (h *history) addLap(lap model.LapRecord) {
	if lap.Compound == "" {
		h.fillFromStint(&lap)
	}

	if idx := h.laps.Index(func(l model.LapRecord) bool { return l.LapNumber == lap.LapNumber }); idx >= 0 {
		old := h.laps.At(idx)
		h.account(old, -1)
		h.account(lap, 1)
		h.laps.Replace(idx, lap)
		return
	}

	last, ok := h.laps.Last()
	if !ok || lap.LapNumber > last.LapNumber {
		h.account(lap, 1)
		h.laps.Push(lap)
		return
	}

	// out of order: keep it only if it falls inside the retained window
	items := h.laps.Items()
	if h.laps.Len() == h.laps.Cap() && lap.LapNumber < items[0].LapNumber {
		return
	}
	h.account(lap, 1)
	rebuilt := queues.NewRing[model.LapRecord](h.laps.Cap())
	inserted := false
	for _, l := range items {
		if !inserted && lap.LapNumber < l.LapNumber {
			rebuilt.Push(lap)
			inserted = true
		}
		rebuilt.Push(l)
	}
	h.laps = rebuilt
}

func (h *history) account(lap model.LapRecord, sign int) {
	if !lap.HasLapTime() {
		return
	}
	h.elapsed += float64(sign) * lap.LapTime
	h.timedLaps += sign
}

func (h *history) fillFromStint(lap *model.LapRecord) {
	items := h.stints.Items()
	for i := len(items) - 1; i >= 0; i-- {
		st := items[i]
		if st.Covers(lap.LapNumber) {
			lap.Compound = st.Compound
			lap.StintID = st.StintID
			lap.TyreLife = st.TyreLifeOn(lap.LapNumber)
			return
		}
	}
}

func (h *history) addStint(st model.StintRecord) {
	if idx := h.stints.Index(func(s model.StintRecord) bool { return s.StintID == st.StintID }); idx >= 0 {
		h.stints.Replace(idx, st)
	} else {
		if h.stints.Len() == h.stints.Cap() && st.StintID < h.stints.Peek().StintID {
			return
		}
		last, ok := h.stints.Last()
		h.stints.Push(st)
		if ok && st.StintID < last.StintID {
			h.sortStints()
		}
	}
	h.backfill(st)
}

func (h *history) sortStints() {
	items := h.stints.Items()
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].StintID < items[j-1].StintID; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	for i, st := range items {
		h.stints.Replace(i, st)
	}
}

func (h *history) backfill(st model.StintRecord) {
	for i := 0; i < h.laps.Len(); i++ {
		lap := h.laps.At(i)
		if !st.Covers(lap.LapNumber) {
			continue
		}
		if lap.StintID != 0 && lap.StintID != st.StintID {
			continue
		}
		lap.Compound = st.Compound
		lap.StintID = st.StintID
		lap.TyreLife = st.TyreLifeOn(lap.LapNumber)
		h.laps.Replace(i, lap)
	}
}

func (h *history) snapshot() DriverSnapshot {
	ds := DriverSnapshot{
		Driver:    h.driver,
		Laps:      h.laps.Items(),
		Stints:    h.stints.Items(),
		Status:    h.status,
		Elapsed:   h.elapsed,
		TimedLaps: h.timedLaps,
	}
	if h.position != nil {
		p := *h.position
		ds.Position = &p
	} else if h.resultPosition > 0 {
		ds.Position = &model.PositionRecord{Driver: h.driver.Number, Position: h.resultPosition}
	}
	if h.interval != nil {
		i := *h.interval
		ds.Interval = &i
	}
	return ds
}
