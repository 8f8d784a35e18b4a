package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astraguard/astraguard/pkg/contracts"
)

func sampleEvent() contracts.ConjunctionEvent {
	return contracts.ConjunctionEvent{
		SchemaVersion:    contracts.SchemaVersion,
		EventID:          "EVT-5-99-2026-02-23T12:00:00Z",
		PrimaryID:        5,
		SecondaryID:      99,
		TCAUTC:           "2026-02-23T12:00:00Z",
		MissDistanceM:    123.456,
		RelativeSpeedMps: 7500.0,
		PcAssumed:        1e-4,
		RiskScore:        1e-4,
		WindowStartUTC:   "2026-02-23T11:00:00Z",
		WindowEndUTC:     "2026-02-23T13:00:00Z",
		ModelVersion:      contracts.ModelVersion,
		Assumptions: contracts.Assumptions{
			DtS:               600,
			CatalogGroupsUsed: []string{"ACTIVE", "DEBRIS"},
		},
	}
}

func TestWriteTopConjunctionsProducesJSONAndCSV(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	events := []contracts.ConjunctionEvent{sampleEvent()}
	require.NoError(t, w.WriteTopConjunctions(events, "2026-02-23T12:00:05Z"))

	jsonPath := filepath.Join(dir, "top_conjunctions.json")
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var root contracts.TopConjunctions
	require.NoError(t, json.Unmarshal(data, &root))
	assert.Equal(t, 1, root.EventCount)
	assert.Equal(t, "EVT-5-99-2026-02-23T12:00:00Z", root.Events[0].EventID)

	csvData, err := os.ReadFile(filepath.Join(dir, "top_conjunctions.csv"))
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(csvData))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2) // header + 1 row
	assert.Equal(t, "event_id", records[0][0])
	assert.Equal(t, "assumptions_json", records[0][len(records[0])-1])
	assert.Equal(t, "EVT-5-99-2026-02-23T12:00:00Z", records[1][0])

	assert.Contains(t, w.entries, "top_conjunctions_json")
	assert.Contains(t, w.entries, "top_conjunctions_csv")
	assert.NotEmpty(t, w.entries["top_conjunctions_json"].SHA256)
}

func TestWriteCesiumSnapshot(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	snap := contracts.CesiumSnapshot{
		SchemaVersion:  contracts.SchemaVersion,
		ArtifactType:   "cesium_snapshot",
		Frame:          "ECEF",
		Units:          "meters",
		ModelVersion:   contracts.ModelVersion,
		GeneratedAtUTC: "2026-02-23T12:00:05Z",
		TimesUTC:       []string{"2026-02-23T12:00:00Z"},
	}
	require.NoError(t, w.WriteCesiumSnapshot(snap))

	data, err := os.ReadFile(filepath.Join(dir, "cesium_orbits_snapshot.json"))
	require.NoError(t, err)
	var got contracts.CesiumSnapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ECEF", got.Frame)
	assert.Contains(t, w.entries, "cesium_orbits_snapshot_json")
}

func TestWriteManeuverPlans(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	plans := map[string]contracts.ManeuverPlanEntry{
		"EVT-5-99-2026-02-23T12:00:00Z": {EventID: "EVT-5-99-2026-02-23T12:00:00Z"},
	}
	require.NoError(t, w.WriteManeuverPlans(plans, "2026-02-23T12:00:05Z"))

	data, err := os.ReadFile(filepath.Join(dir, "maneuver_plans.json"))
	require.NoError(t, err)
	var got contracts.ManeuverPlans
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.EventCount)
	assert.Contains(t, got.PlansByEventID, "EVT-5-99-2026-02-23T12:00:00Z")
}

func TestWriteManifestCoversAllPriorArtifacts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.WriteTopConjunctions([]contracts.ConjunctionEvent{sampleEvent()}, "2026-02-23T12:00:05Z"))
	require.NoError(t, w.WriteCesiumSnapshot(contracts.CesiumSnapshot{SchemaVersion: contracts.SchemaVersion, GeneratedAtUTC: "2026-02-23T12:00:05Z"}))
	require.NoError(t, w.WriteManeuverPlans(map[string]contracts.ManeuverPlanEntry{}, "2026-02-23T12:00:05Z"))
	require.NoError(t, w.WriteManifest("run-1", "2026-02-23T12:00:06Z"))

	data, err := os.ReadFile(filepath.Join(dir, "artifacts_latest.json"))
	require.NoError(t, err)
	var got contracts.ArtifactManifest
	require.NoError(t, json.Unmarshal(data, &got))
	require.NotNil(t, got.LatestRunID)
	assert.Equal(t, "run-1", *got.LatestRunID)
	assert.Len(t, got.Artifacts, 4)
	for _, entry := range got.Artifacts {
		assert.NotEmpty(t, entry.SHA256)
	}
}
