package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astraguard/astraguard/pkg/catalog"
	"github.com/astraguard/astraguard/pkg/contracts"
	"github.com/astraguard/astraguard/pkg/propagation"
)

func fakeGrid() *propagation.Grid {
	t0, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	times := []time.Time{t0, t0.Add(time.Minute), t0.Add(2 * time.Minute), t0.Add(3 * time.Minute)}
	positions := make([][][3]float64, len(times))
	for i := range positions {
		positions[i] = [][3]float64{
			{7000 + float64(i), 0, 0},
			{0, 7000 + float64(i), 0},
			{0, 0, 7000 + float64(i)},
		}
	}
	return &propagation.Grid{
		Times:       times,
		PositionsKm: positions,
		KeptTLEs: []catalog.TLE{
			{NoradID: 1, Name: "A", SourceGroup: "ACTIVE"},
			{NoradID: 2, Name: "B", SourceGroup: "DEBRIS"},
			{NoradID: 3, Name: "C", SourceGroup: "DEBRIS"},
		},
	}
}

func TestSelectIndicesUnbalancedIncludesEverything(t *testing.T) {
	grid := fakeGrid()
	indices, warn := SelectIndices(grid, SelectionOptions{Balanced: false})
	assert.Empty(t, warn)
	assert.ElementsMatch(t, []int{0, 1, 2}, indices)
}

func TestSelectIndicesBalancedGuaranteesRequired(t *testing.T) {
	grid := fakeGrid()
	opts := SelectionOptions{
		Balanced:         true,
		ActiveTarget:     0,
		DebrisTarget:     0,
		MaxObjects:       1,
		RequiredNoradIDs: map[uint32]bool{3: true},
		Seed:             1,
	}
	indices, warn := SelectIndices(grid, opts)
	assert.Empty(t, warn)
	require.Contains(t, indices, 2)
}

func TestSelectIndicesExpandsCapWhenRequiredExceedsMax(t *testing.T) {
	grid := fakeGrid()
	opts := SelectionOptions{
		Balanced:         true,
		MaxObjects:       1,
		RequiredNoradIDs: map[uint32]bool{1: true, 2: true, 3: true},
		Seed:             1,
	}
	indices, warn := SelectIndices(grid, opts)
	assert.NotEmpty(t, warn)
	assert.Len(t, indices, 3)
}

func TestBuildProducesDownsampledRoundedPositions(t *testing.T) {
	grid := fakeGrid()
	generatedAt, _ := time.Parse(time.RFC3339, "2024-01-01T00:10:00Z")
	snap := Build(grid, []int{0, 1, 2}, 2, 60.0, generatedAt)

	assert.Equal(t, "ECEF", snap.Frame)
	assert.Equal(t, "meters", snap.Units)
	require.Len(t, snap.TimesUTC, 2) // 4 native samples downsampled by 2
	assert.Equal(t, 2, snap.Meta.DownsampleStep)
	assert.InDelta(t, 120.0, snap.Meta.ExportDtS, 1e-9)
	require.Len(t, snap.Objects, 3)
	require.Len(t, snap.Objects[0].PositionsECEFM, 2)
}

func TestNearestTimeIndexFindsClosest(t *testing.T) {
	t0, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	times := []string{
		t0.Format(time.RFC3339),
		t0.Add(time.Minute).Format(time.RFC3339),
		t0.Add(2 * time.Minute).Format(time.RFC3339),
	}
	idx := NearestTimeIndex(times, t0.Add(90*time.Second))
	assert.True(t, idx == 1 || idx == 2)
}

func TestLinkageCheckDropsEventsMissingFromSnapshot(t *testing.T) {
	grid := fakeGrid()
	generatedAt, _ := time.Parse(time.RFC3339, "2024-01-01T00:10:00Z")
	snap := Build(grid, []int{0, 1}, 1, 60.0, generatedAt) // norad 3 absent

	events := []contracts.ConjunctionEvent{
		{PrimaryID: 1, SecondaryID: 2, TCAUTC: snap.TimesUTC[0]},
		{PrimaryID: 1, SecondaryID: 3, TCAUTC: snap.TimesUTC[0]},
	}
	kept, dropped := LinkageCheck(events, snap)
	require.Len(t, kept, 1)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, uint32(2), kept[0].SecondaryID)
}
