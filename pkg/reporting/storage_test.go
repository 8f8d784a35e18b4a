package reporting

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageLogger() *Logger {
	return NewLogger(LoggerConfig{Level: LogLevelError, Format: LogFormatJSON, Output: io.Discard})
}

func sampleSummary(runID string, start time.Time) *RunSummary {
	return &RunSummary{
		RunID:        runID,
		StartTime:    start,
		EndTime:      start.Add(time.Minute),
		Duration:     "1m0s",
		Status:       RunStatusCompleted,
		Success:      true,
		FinalStage:   "completed",
		Groups:       []string{"ACTIVE"},
		MaxObjects:   3000,
		EventsFound:  2,
		EventsScored: 2,
		TopKCount:    2,
	}
}

func TestSaveThenLoadRunSummaryRoundTrips(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, 10, testStorageLogger())
	require.NoError(t, err)

	start, _ := time.Parse(time.RFC3339, "2024-01-01T12:00:00Z")
	summary := sampleSummary("run-1", start)

	path, err := storage.SaveRunSummary(summary)
	require.NoError(t, err)

	loaded, err := storage.LoadRunSummary(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, 2, loaded.EventsFound)
}

func TestListRunSummariesOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, 10, testStorageLogger())
	require.NoError(t, err)

	older, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	newer, _ := time.Parse(time.RFC3339, "2024-01-02T00:00:00Z")
	_, err = storage.SaveRunSummary(sampleSummary("run-old", older))
	require.NoError(t, err)
	_, err = storage.SaveRunSummary(sampleSummary("run-new", newer))
	require.NoError(t, err)

	refs, err := storage.ListRunSummaries()
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "run-new", refs[0].RunID)
	assert.Equal(t, "run-old", refs[1].RunID)
}

func TestFindRunSummaryByIDReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, 10, testStorageLogger())
	require.NoError(t, err)

	_, err = storage.FindRunSummaryByID("missing")
	assert.Error(t, err)
}

func TestCleanupKeepsOnlyLastN(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, 1, testStorageLogger())
	require.NoError(t, err)

	first, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	second, _ := time.Parse(time.RFC3339, "2024-01-02T00:00:00Z")
	_, err = storage.SaveRunSummary(sampleSummary("run-a", first))
	require.NoError(t, err)
	_, err = storage.SaveRunSummary(sampleSummary("run-b", second))
	require.NoError(t, err)

	refs, err := storage.ListRunSummaries()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "run-b", refs[0].RunID)
}
