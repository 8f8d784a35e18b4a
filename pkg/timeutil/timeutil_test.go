package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISOAcceptsZAndOffset(t *testing.T) {
	a, err := ParseISO("2026-02-23T12:00:00Z")
	require.NoError(t, err)
	b, err := ParseISO("2026-02-23T12:00:00+00:00")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestFormatISOTruncatesToSeconds(t *testing.T) {
	ts := time.Date(2026, 2, 23, 12, 0, 0, 500_000_000, time.UTC)
	assert.Equal(t, "2026-02-23T12:00:00Z", FormatISO(ts))
}

func TestJulianDateJ2000(t *testing.T) {
	// Noon UTC on 2000-01-01 is JD 2451545.0 exactly.
	jd := JulianDate(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, 2451545.0, jd, 1e-6)
}

func TestGMSTRadiansInRange(t *testing.T) {
	g := GMSTRadians(time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC))
	assert.GreaterOrEqual(t, g, 0.0)
	assert.Less(t, g, 2*3.141592653589793)
}

func TestBuildUniformTimelineAppendsExactHorizonEndpoint(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	times := BuildUniformTimeline(start, 70*time.Minute, 20*time.Minute)
	// 0,20,40,60 within horizon, then exact 70-minute endpoint appended.
	require.Len(t, times, 5)
	assert.Equal(t, start.Add(70*time.Minute), times[len(times)-1])
}

func TestBuildUniformTimelineExactMultipleNoDuplicate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	times := BuildUniformTimeline(start, 60*time.Minute, 20*time.Minute)
	require.Len(t, times, 4)
	assert.Equal(t, start.Add(60*time.Minute), times[len(times)-1])
}
