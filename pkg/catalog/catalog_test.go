package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeGroupsUppercasesDedupesDropsEmpty(t *testing.T) {
	got := NormalizeGroups([]string{" active ", "ACTIVE", "", "debris"})
	assert.Equal(t, []string{"ACTIVE", "DEBRIS"}, got)
}

func TestLoadEmptyGroupsReturnsEmptyWithWarning(t *testing.T) {
	rows, counts, warnings, err := Load(NewMemorySource(nil), nil, 100, true, true)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, counts)
	assert.NotEmpty(t, warnings)
}

func TestLoadNonPositiveMaxObjectsReturnsEmpty(t *testing.T) {
	rows, _, warnings, err := Load(NewMemorySource([]TLE{{NoradID: 1, SourceGroup: "ACTIVE"}}), []string{"ACTIVE"}, 0, true, true)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotEmpty(t, warnings)
}

func TestLoadDedupeKeepsGreatestEpochFetchTuple(t *testing.T) {
	src := NewMemorySource([]TLE{
		{NoradID: 5, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-01T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-02T00:00:00Z")},
		{NoradID: 5, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-03T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-02T00:00:00Z")},
	})
	rows, _, _, err := Load(src, []string{"ACTIVE"}, 10, false, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mustTime("2026-01-03T00:00:00Z"), rows[0].EpochUTC)
}

func TestLoadPreferLatestFetchRestrictsPerGroup(t *testing.T) {
	src := NewMemorySource([]TLE{
		{NoradID: 1, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-01T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-01T00:00:00Z")},
		{NoradID: 2, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-01T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-02T00:00:00Z")},
	})
	rows, _, _, err := Load(src, []string{"ACTIVE"}, 10, true, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint32(2), rows[0].NoradID)
}

func TestLoadSortsAndTruncates(t *testing.T) {
	src := NewMemorySource([]TLE{
		{NoradID: 9, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-01T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-01T00:00:00Z")},
		{NoradID: 3, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-01T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-01T00:00:00Z")},
		{NoradID: 7, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-01T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-01T00:00:00Z")},
	})
	rows, _, _, err := Load(src, []string{"ACTIVE"}, 2, false, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint32(3), rows[0].NoradID)
	assert.Equal(t, uint32(7), rows[1].NoradID)
}

func TestMemoryCatalogListTLEs(t *testing.T) {
	c := NewMemoryCatalog([]TLE{
		{NoradID: 1, SourceGroup: "ACTIVE", EpochUTC: mustTime("2026-01-01T00:00:00Z"), FetchedAtUTC: mustTime("2026-01-01T00:00:00Z")},
	})
	rows, counts, _, err := c.ListTLEs([]string{"active"}, 10, true, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, counts["ACTIVE"])
}
