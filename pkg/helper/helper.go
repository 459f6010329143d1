package helper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"f1livetiming/pkg/model"
)

func toMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// FormatLapTime converts seconds to M:SS.sss. Absent times render as "N/A".
func FormatLapTime(seconds float64) string {
	if !model.Valid(seconds) {
		return model.NotAvailable
	}
	ms := toMillis(seconds)
	minutes := ms / 60000
	ms -= minutes * 60000
	return fmt.Sprintf("%d:%02d.%03d", minutes, ms/1000, ms%1000)
}

// ParseLapTime is the inverse of FormatLapTime. Plain seconds ("81.5") are accepted too.
func ParseLapTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == model.NotAvailable {
		return 0, fmt.Errorf("no lap time in %q", s)
	}
	minutes := 0
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		m, err := strconv.Atoi(s[:idx])
		if err != nil || m < 0 {
			return 0, fmt.Errorf("parse minutes of %q: invalid", s)
		}
		minutes = m
		s = s[idx+1:]
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse seconds of %q: %w", s, err)
	}
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) || (minutes > 0 && secs >= 60) {
		return 0, fmt.Errorf("seconds out of range in %q", s)
	}
	return float64(minutes)*60 + secs, nil
}

// FormatGap renders a time gap with an explicit sign, e.g. "+1.500".
func FormatGap(seconds float64) string {
	ms := toMillis(seconds)
	sign := "+"
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return fmt.Sprintf("%s%d.%03d", sign, ms/1000, ms%1000)
}

// FormatDelta renders last-minus-best: "+d.ddd" slower, "-d.ddd" faster, "±0.000" equal.
func FormatDelta(last, best float64) string {
	d := toMillis(last) - toMillis(best)
	switch {
	case d > 0:
		return fmt.Sprintf("+%d.%03d", d/1000, d%1000)
	case d < 0:
		d = -d
		return fmt.Sprintf("-%d.%03d", d/1000, d%1000)
	}
	return "±0.000"
}

// FormatOrdinalGap is the race fallback when no elapsed time is known: "P+{places}".
func FormatOrdinalGap(places int) string {
	return fmt.Sprintf("P+%d", places)
}

// FormatCountdown renders a time-to-start as "2d 3h 4m", "3h 4m" or "4m".
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "STARTED"
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func GetDriverCodeName(name string) string {
	// first letter of the name followed by the first two of the surname
	if name == "" {
		return ""
	}
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	code := string(words[0][0])
	if len(words) > 1 {
		last := words[len(words)-1]
		if len(last) > 2 {
			code += last[:2]
		} else {
			code += last
		}
	} else if len(words[0]) > 2 {
		code += words[0][1:3]
	} else {
		code = words[0]
	}
	return strings.ToUpper(code)
}
