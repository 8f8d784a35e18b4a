package tca

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astraguard/astraguard/pkg/catalog"
	"github.com/astraguard/astraguard/pkg/propagation"
	"github.com/astraguard/astraguard/pkg/spatialhash"
)

// Two ISS-like TLEs sharing the same epoch and orbit plane but offset in
// mean anomaly, so their ground tracks cross during the propagation window.
const (
	primaryLine1   = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9994"
	primaryLine2   = "2 25544  51.6400 208.9163 0006703 130.5360 325.0288 15.49560532123456"
	secondaryLine1 = "1 90001U 24001A   24001.50000000  .00016717  00000-0  10270-3 0  9992"
	secondaryLine2 = "2 90001  51.6400 208.9163 0006703 130.5360 325.0500 15.49560532123456"
)

func sampleTLEs() []catalog.TLE {
	epoch, _ := time.Parse(time.RFC3339, "2024-01-01T12:00:00Z")
	return []catalog.TLE{
		{NoradID: 25544, Name: "PRIMARY", EpochUTC: epoch, Line1: primaryLine1, Line2: primaryLine2, SourceGroup: "ACTIVE"},
		{NoradID: 90001, Name: "SECONDARY", EpochUTC: epoch, Line1: secondaryLine1, Line2: secondaryLine2, SourceGroup: "ACTIVE"},
	}
}

func TestRefineProducesFiniteTCAForCandidatePair(t *testing.T) {
	tles := sampleTLEs()
	start := tles[0].EpochUTC
	grid, err := propagation.Run(tles, start, 2*time.Hour, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, grid.Satellites, 2)

	stream := spatialhash.NewStream(grid.PositionsKm, 100000.0) // huge voxel: force a candidate pair
	events, dropped := Refine(grid, stream, 1*time.Second, DefaultRefineHalfWindowSteps)
	assert.Equal(t, 0, dropped)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, 0, ev.I)
	assert.Equal(t, 1, ev.J)
	assert.GreaterOrEqual(t, ev.MissDistanceM, 0.0)
	assert.False(t, ev.TCAUTC.Before(ev.WindowStartUTC))
	assert.False(t, ev.TCAUTC.After(ev.WindowEndUTC))
	assert.GreaterOrEqual(t, ev.RelativeSpeedMps, 0.0)
}

func TestRefineNoCandidatesReturnsNoEvents(t *testing.T) {
	tles := sampleTLEs()
	start := tles[0].EpochUTC
	grid, err := propagation.Run(tles, start, 10*time.Minute, 30*time.Second)
	require.NoError(t, err)

	stream := spatialhash.NewStream(grid.PositionsKm, 0.001) // tiny voxel: no candidates
	events, dropped := Refine(grid, stream, 1*time.Second, DefaultRefineHalfWindowSteps)
	assert.Equal(t, 0, dropped)
	assert.Empty(t, events)
}

func TestRelativeSpeedMpsBoundaryAndInteriorCases(t *testing.T) {
	rel := [][3]float64{
		{0, 0, 0},
		{1, 0, 0},
		{3, 0, 0},
		{6, 0, 0},
	}
	assert.InDelta(t, 1000.0, relativeSpeedMps(rel, 0, 1.0), 1e-9)
	assert.InDelta(t, 1500.0, relativeSpeedMps(rel, 1, 1.0), 1e-9)
	assert.InDelta(t, 3000.0, relativeSpeedMps(rel, 3, 1.0), 1e-9)
}

func TestRelativeSpeedMpsSingleSampleIsZero(t *testing.T) {
	assert.Equal(t, 0.0, relativeSpeedMps([][3]float64{{0, 0, 0}}, 0, 1.0))
}
