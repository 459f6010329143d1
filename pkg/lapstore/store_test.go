package lapstore

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1livetiming/pkg/model"
)

func lap(driver, number int, secs float64) LapEvent {
	return LapEvent{Lap: model.LapRecord{Driver: driver, LapNumber: number, LapTime: secs}}
}

func lapNumbers(d DriverSnapshot) []int {
	out := make([]int, 0, len(d.Laps))
	for _, l := range d.Laps {
		out = append(out, l.LapNumber)
	}
	return out
}

func TestLapWindowTrimsButKeepsElapsed(t *testing.T) {
	s := New(Options{LapWindow: 3})
	for i := 1; i <= 5; i++ {
		s.Apply(lap(1, i, 80))
	}
	d, ok := s.Snapshot().Driver(1)
	require.True(t, ok)
	assert.Equal(t, []int{3, 4, 5}, lapNumbers(d))
	assert.InDelta(t, 400, d.Elapsed, 1e-9)
	assert.Equal(t, 5, d.TimedLaps)
}

func TestLapReplacementAdjustsElapsed(t *testing.T) {
	s := New(Options{})
	s.Apply(lap(1, 1, 0), lap(1, 2, 81))
	s.Apply(lap(1, 1, 90))
	d, _ := s.Snapshot().Driver(1)
	assert.InDelta(t, 171, d.Elapsed, 1e-9)
	assert.Equal(t, 2, d.TimedLaps)

	s.Apply(lap(1, 2, 80))
	d, _ = s.Snapshot().Driver(1)
	assert.InDelta(t, 170, d.Elapsed, 1e-9)
	assert.Equal(t, []int{1, 2}, lapNumbers(d))
}

func TestReplayedLapsOutsideWindowAreDropped(t *testing.T) {
	s := New(Options{LapWindow: 2})
	s.Apply(lap(7, 1, 90), lap(7, 2, 91), lap(7, 3, 92))
	// a polling refresh replays the full history
	s.Apply(lap(7, 1, 90), lap(7, 2, 91), lap(7, 3, 92))
	d, _ := s.Snapshot().Driver(7)
	assert.Equal(t, []int{2, 3}, lapNumbers(d))
	assert.InDelta(t, 273, d.Elapsed, 1e-9)
}

func TestOutOfOrderLapInsideWindow(t *testing.T) {
	s := New(Options{LapWindow: 4})
	s.Apply(lap(1, 1, 80), lap(1, 3, 82))
	s.Apply(lap(1, 2, 81))
	d, _ := s.Snapshot().Driver(1)
	assert.Equal(t, []int{1, 2, 3}, lapNumbers(d))
}

func TestStintWindowAndBackfill(t *testing.T) {
	s := New(Options{StintWindow: 2})
	s.Apply(lap(44, 1, 0), lap(44, 2, 90.5), lap(44, 3, 90.1))
	s.Apply(StintEvent{Stint: model.StintRecord{Driver: 44, StintID: 1, Compound: "MEDIUM", LapStart: 1, TyreAgeAtStart: 2}})

	d, _ := s.Snapshot().Driver(44)
	for _, l := range d.Laps {
		assert.Equal(t, "MEDIUM", l.Compound)
		assert.Equal(t, 1, l.StintID)
	}
	assert.Equal(t, 4, d.Laps[2].TyreLife)

	s.Apply(StintEvent{Stint: model.StintRecord{Driver: 44, StintID: 1, Compound: "MEDIUM", LapStart: 1, LapEnd: 3, TyreAgeAtStart: 2}})
	s.Apply(StintEvent{Stint: model.StintRecord{Driver: 44, StintID: 2, Compound: "HARD", LapStart: 4}})
	s.Apply(lap(44, 4, 95))
	d, _ = s.Snapshot().Driver(44)
	last := d.Laps[len(d.Laps)-1]
	assert.Equal(t, "HARD", last.Compound)
	assert.Equal(t, 2, last.StintID)
	assert.Equal(t, 0, last.TyreLife)
	assert.Equal(t, 3, d.Stints[0].LapEnd)

	s.Apply(StintEvent{Stint: model.StintRecord{Driver: 44, StintID: 3, Compound: "SOFT", LapStart: 20}})
	d, _ = s.Snapshot().Driver(44)
	require.Len(t, d.Stints, 2)
	assert.Equal(t, 2, d.Stints[0].StintID)
	assert.Equal(t, 3, d.Stints[1].StintID)

	// older than the window
	s.Apply(StintEvent{Stint: model.StintRecord{Driver: 44, StintID: 1, Compound: "WET", LapStart: 1}})
	d, _ = s.Snapshot().Driver(44)
	assert.Equal(t, 2, d.Stints[0].StintID)
}

func TestLatestPositionAndIntervalWin(t *testing.T) {
	t0 := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	s := New(Options{})
	s.Apply(
		PositionEvent{Position: model.PositionRecord{Driver: 1, Position: 2, Timestamp: t0.Add(time.Minute)}},
		PositionEvent{Position: model.PositionRecord{Driver: 1, Position: 5, Timestamp: t0}},
		IntervalEvent{Interval: model.IntervalRecord{Driver: 1, GapToLeader: model.Gap{Seconds: 1.2, Valid: true}, Timestamp: t0.Add(time.Minute)}},
		IntervalEvent{Interval: model.IntervalRecord{Driver: 1, GapToLeader: model.Gap{Seconds: 9, Valid: true}, Timestamp: t0}},
	)
	d, _ := s.Snapshot().Driver(1)
	require.NotNil(t, d.Position)
	assert.Equal(t, 2, d.Position.Position)
	require.NotNil(t, d.Interval)
	assert.InDelta(t, 1.2, d.Interval.GapToLeader.Seconds, 1e-9)
}

func TestRosterResultSessionAndReset(t *testing.T) {
	s := New(Options{})
	s.Apply(
		RosterEvent{Drivers: []model.Driver{{Number: 16, Code: "LEC", Team: "Ferrari"}, {Number: 1, Code: "VER"}}},
		ResultEvent{Driver: 16, Status: "DNF", Position: 20},
		SessionEvent{Flag: "RED", Message: "RED FLAG"},
	)
	snap := s.Snapshot()
	require.Len(t, snap.Drivers, 2)
	assert.Equal(t, 1, snap.Drivers[0].Driver.Number)
	assert.Equal(t, "DNF", snap.Drivers[1].Status)
	assert.Equal(t, 20, snap.Drivers[1].Position.Position)
	assert.Equal(t, "RED", snap.Flag)
	assert.Equal(t, uint64(1), snap.Version)

	s.Apply(ResetEvent{})
	snap = s.Snapshot()
	assert.Empty(t, snap.Drivers)
	assert.Empty(t, snap.Flag)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := New(Options{})
	s.Apply(lap(1, 1, 80), PositionEvent{Position: model.PositionRecord{Driver: 1, Position: 1}})
	before := s.Snapshot()
	frozen := before.Clone()

	before.Drivers[0].Laps[0].LapTime = 1
	before.Drivers[0].Position.Position = 9
	s.Apply(lap(1, 2, 81))

	assert.InDelta(t, 1, before.Drivers[0].Laps[0].LapTime, 1e-9)
	assert.Len(t, frozen.Drivers[0].Laps, 1)
	if diff := cmp.Diff(frozen.Drivers[0].Laps[0], s.Snapshot().Drivers[0].Laps[0]); diff != "" {
		t.Fatalf("retained lap changed (-want +got):\n%s", diff)
	}
	again, _ := s.Snapshot().Driver(1)
	assert.Equal(t, 1, again.Position.Position)
	assert.Len(t, again.Laps, 2)
}

func TestConcurrentReadersDuringWrites(t *testing.T) {
	s := New(Options{})
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					snap := s.Snapshot()
					for _, d := range snap.Drivers {
						assert.LessOrEqual(t, len(d.Laps), DefaultLapWindow)
					}
				}
			}
		}()
	}
	for i := 1; i <= 200; i++ {
		s.Apply(lap(i%20+1, i, 80))
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, uint64(200), s.Snapshot().Version)
}
