package helper

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLapTime(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"sub minute", 59.9, "0:59.900"},
		{"typical", 95.123, "1:35.123"},
		{"rounding carries", 89.9996, "1:30.000"},
		{"absent", 0, "N/A"},
		{"nan", math.NaN(), "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLapTime(tt.seconds))
		})
	}
}

func TestLapTimeRoundTrip(t *testing.T) {
	assert.Equal(t, "1:35.123", FormatLapTime(95.123))
	for _, secs := range []float64{95.123, 80, 81.5, 62.001, 119.999} {
		parsed, err := ParseLapTime(FormatLapTime(secs))
		require.NoError(t, err)
		assert.InDelta(t, secs, parsed, 0.001)
	}
}

func TestParseLapTime(t *testing.T) {
	secs, err := ParseLapTime("81.5")
	require.NoError(t, err)
	assert.InDelta(t, 81.5, secs, 1e-9)

	secs, err = ParseLapTime(" 1:20.250 ")
	require.NoError(t, err)
	assert.InDelta(t, 80.25, secs, 1e-9)

	for _, s := range []string{"", "N/A", "x:10.0", "1:ab", "-1:10.0", "1:75.000", "1:-5", "NaN"} {
		_, err := ParseLapTime(s)
		assert.Error(t, err, s)
	}
}

func TestFormatGap(t *testing.T) {
	assert.Equal(t, "+1.500", FormatGap(1.5))
	assert.Equal(t, "+0.500", FormatGap(82.0-81.5))
	assert.Equal(t, "-0.250", FormatGap(-0.25))
	assert.Equal(t, "+12.000", FormatGap(12))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+0.700", FormatDelta(81.2, 80.5))
	assert.Equal(t, "-0.300", FormatDelta(80.2, 80.5))
	assert.Equal(t, "±0.000", FormatDelta(80.5, 80.5))
	assert.Equal(t, "±0.000", FormatDelta(80.5000001, 80.5))
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "STARTED", FormatCountdown(0))
	assert.Equal(t, "45m", FormatCountdown(45*time.Minute+10*time.Second))
	assert.Equal(t, "3h 5m", FormatCountdown(3*time.Hour+5*time.Minute))
	assert.Equal(t, "2d 1h 0m", FormatCountdown(49*time.Hour))
}

func TestGetDriverCodeName(t *testing.T) {
	assert.Equal(t, "MVE", GetDriverCodeName("Max Verstappen"))
	assert.Equal(t, "CLE", GetDriverCodeName("Charles Leclerc"))
	assert.Equal(t, "ZHO", GetDriverCodeName("Zhou"))
	assert.Equal(t, "", GetDriverCodeName(""))
}
