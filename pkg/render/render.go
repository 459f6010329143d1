package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"f1livetiming/pkg/helper"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/tracker"
)

// Header describes the session on one line, e.g. "Race @ Sakhir [LIVE] feed: live".
func Header(st tracker.State) string {
	s := st.Session
	if s == nil {
		return "no live or upcoming session"
	}
	line := fmt.Sprintf("%s @ %s [%s]", s.Name, s.Circuit, s.Status)
	switch s.Status {
	case model.StatusUpcoming:
		line += " starts in " + helper.FormatCountdown(s.Countdown)
	case model.StatusLive:
		line += " feed: " + string(st.Health)
		if st.Flag != "" {
			line += " flag: " + st.Flag
		}
	}
	return line
}

// Classification writes the header line followed by the classification table.
func Classification(w io.Writer, st tracker.State) error {
	if _, err := fmt.Fprintln(w, Header(st)); err != nil {
		return err
	}
	if len(st.Rows) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"POS", "DRIVER", "TEAM", "GAP", "INT", "BEST", "LAST", "DELTA", "TYRE", "AGE", "PIT", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, r := range st.Rows {
		t.AppendRow(table.Row{
			r.Position,
			driverLabel(r.Driver),
			r.Driver.Team,
			r.GapToLeader,
			r.GapToAhead,
			r.BestLap,
			r.LastLap,
			r.DeltaToBest,
			r.Compound,
			r.TyreLife,
			r.PitStops,
			r.Status,
		})
	}
	t.Render()
	return nil
}

// Compact writes a narrow table that fits a chat message.
func Compact(w io.Writer, st tracker.State) {
	fmt.Fprintln(w, Header(st))
	if len(st.Rows) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"P", "DRV", "GAP", "LAST", "T"})
	for _, r := range st.Rows {
		code := r.Driver.Code
		if code == "" {
			code = strconv.Itoa(r.Driver.Number)
		}
		t.AppendRow(table.Row{r.Position, code, r.GapToLeader, r.LastLap, compoundInitial(r.Compound)})
	}
	t.Render()
}

func compoundInitial(c model.Compound) string {
	if c == "" || c == model.Unknown {
		return "-"
	}
	return string(c)[:1]
}

// Stints writes one driver's per-stint pace.
func Stints(w io.Writer, row model.ClassificationRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(driverLabel(row.Driver))
	t.AppendHeader(table.Row{"STINT", "TYRE", "LAPS", "AVG", "BEST", "DEG/LAP"})
	for _, p := range row.StintPace {
		t.AppendRow(table.Row{
			p.StintID,
			p.Compound,
			p.Laps,
			helper.FormatLapTime(p.AverageLap),
			helper.FormatLapTime(p.BestLap),
			helper.FormatGap(p.Degradation),
		})
	}
	t.Render()
}

func driverLabel(d model.Driver) string {
	if d.Code == "" {
		return strconv.Itoa(d.Number)
	}
	return fmt.Sprintf("%s %d", d.Code, d.Number)
}
