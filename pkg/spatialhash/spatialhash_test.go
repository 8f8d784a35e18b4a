package spatialhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamFindsNearbyPairWithinOneVoxel(t *testing.T) {
	positions := [][][3]float64{
		{
			{0, 0, 0},
			{1, 1, 1},
			{1000, 1000, 1000},
		},
	}
	s := NewStream(positions, 50.0)
	step, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 0, step.TIdx)
	assert.Contains(t, step.Pairs, Pair{0, 1})
	assert.NotContains(t, step.Pairs, Pair{0, 2})
	assert.NotContains(t, step.Pairs, Pair{1, 2})

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestStreamPairsAreSortedAndDeduped(t *testing.T) {
	positions := [][][3]float64{
		{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
	}
	s := NewStream(positions, 50.0)
	step, ok := s.Next()
	require.True(t, ok)
	require.Len(t, step.Pairs, 3)
	assert.Equal(t, Pair{0, 1}, step.Pairs[0])
	assert.Equal(t, Pair{0, 2}, step.Pairs[1])
	assert.Equal(t, Pair{1, 2}, step.Pairs[2])
}

func TestStreamAcrossVoxelBoundaryStillMatches(t *testing.T) {
	positions := [][][3]float64{
		{{49.9, 0, 0}, {50.1, 0, 0}},
	}
	s := NewStream(positions, 50.0)
	step, _ := s.Next()
	assert.Equal(t, []Pair{{0, 1}}, step.Pairs)
}

func TestStreamLen(t *testing.T) {
	positions := make([][][3]float64, 5)
	s := NewStream(positions, 50.0)
	assert.Equal(t, 5, s.Len())
}
