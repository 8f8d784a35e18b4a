// Package artifacts writes the run's output files, grounded on
// astragaurd/scripts/run_screening.py's `_write_top_outputs` and
// `_write_cesium_snapshot`. Every artifact is written with a deterministic
// field order and hashed into the run manifest, which is always written
// last so a partial run never advertises artifacts it did not finish.
package artifacts

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/astraguard/astraguard/pkg/contracts"
	"github.com/astraguard/astraguard/pkg/errkind"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Writer persists artifacts under a single output directory and accumulates
// manifest entries as it goes.
type Writer struct {
	dir      string
	repoRoot string
	entries  map[string]contracts.ArtifactEntry
}

// NewWriter creates dir if needed and returns a Writer rooted there. Manifest
// entries are recorded relative to the process's working directory (the
// repo root in any normal invocation), matching
// astragaurd/apps/api/main.py's _artifact_path_for_manifest; if dir turns
// out to live outside that root (or the root can't be determined), the
// manifest falls back to an absolute path rather than a wrong relative one.
func NewWriter(dir string) (*Writer, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errkind.New(errkind.ArtifactIOError, err, "dir", dir)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, errkind.New(errkind.ArtifactIOError, err, "dir", dir)
	}
	repoRoot, _ := os.Getwd()
	return &Writer{dir: absDir, repoRoot: repoRoot, entries: make(map[string]contracts.ArtifactEntry)}, nil
}

// relativeForManifest expresses absPath relative to the repo root, falling
// back to the absolute path if it can't (different volume, root unknown, or
// the artifact dir lives outside the root).
func (w *Writer) relativeForManifest(absPath string) string {
	if w.repoRoot == "" {
		return absPath
	}
	rel, err := filepath.Rel(w.repoRoot, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return absPath
	}
	return rel
}

func (w *Writer) writeFile(name string, data []byte) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errkind.New(errkind.ArtifactIOError, err, "path", path)
	}
	return path, nil
}

func (w *Writer) record(name, path, schemaVersion, modelVersion, generatedAtUTC string, data []byte) {
	sum := sha256.Sum256(data)
	w.entries[name] = contracts.ArtifactEntry{
		Path:           w.relativeForManifest(path),
		SchemaVersion:  schemaVersion,
		ModelVersion:   modelVersion,
		SHA256:         hex.EncodeToString(sum[:]),
		GeneratedAtUTC: generatedAtUTC,
	}
}

// WriteTopConjunctions writes top_conjunctions.json and its CSV shadow.
func (w *Writer) WriteTopConjunctions(events []contracts.ConjunctionEvent, generatedAtUTC string) error {
	root := contracts.TopConjunctions{
		SchemaVersion:  contracts.SchemaVersion,
		ArtifactType:   "top_conjunctions",
		ModelVersion:   contracts.ModelVersion,
		GeneratedAtUTC: generatedAtUTC,
		EventCount:     len(events),
		Events:         events,
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return errkind.New(errkind.ArtifactIOError, err, "artifact", "top_conjunctions.json")
	}
	data = append(data, '\n')
	path, err := w.writeFile("top_conjunctions.json", data)
	if err != nil {
		return err
	}
	w.record("top_conjunctions_json", path, contracts.SchemaVersion, contracts.ModelVersion, generatedAtUTC, data)

	csvData, err := marshalCSV(events)
	if err != nil {
		return errkind.New(errkind.ArtifactIOError, err, "artifact", "top_conjunctions.csv")
	}
	csvPath, err := w.writeFile("top_conjunctions.csv", csvData)
	if err != nil {
		return err
	}
	w.record("top_conjunctions_csv", csvPath, contracts.SchemaVersion, contracts.ModelVersion, generatedAtUTC, csvData)
	return nil
}

var csvFieldnames = []string{
	"event_id",
	"primary_id",
	"secondary_id",
	"tca_utc",
	"miss_distance_m",
	"relative_speed_mps",
	"pc_assumed",
	"risk_score",
	"window_start_utc",
	"window_end_utc",
	"model_version",
	"assumptions_json",
}

func marshalCSV(events []contracts.ConjunctionEvent) ([]byte, error) {
	path, err := os.CreateTemp("", "top_conjunctions-*.csv")
	if err != nil {
		return nil, err
	}
	defer os.Remove(path.Name())
	defer path.Close()

	w := csv.NewWriter(path)
	if err := w.Write(csvFieldnames); err != nil {
		return nil, err
	}
	for _, ev := range events {
		assumptionsJSON, err := json.Marshal(ev.Assumptions)
		if err != nil {
			return nil, err
		}
		row := []string{
			ev.EventID,
			fmt.Sprint(ev.PrimaryID),
			fmt.Sprint(ev.SecondaryID),
			ev.TCAUTC,
			fmt.Sprintf("%g", ev.MissDistanceM),
			fmt.Sprintf("%g", ev.RelativeSpeedMps),
			fmt.Sprintf("%g", ev.PcAssumed),
			fmt.Sprintf("%g", ev.RiskScore),
			ev.WindowStartUTC,
			ev.WindowEndUTC,
			ev.ModelVersion,
			string(assumptionsJSON),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return os.ReadFile(path.Name())
}

// WriteCesiumSnapshot writes cesium_orbits_snapshot.json.
func (w *Writer) WriteCesiumSnapshot(snap contracts.CesiumSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errkind.New(errkind.ArtifactIOError, err, "artifact", "cesium_orbits_snapshot.json")
	}
	data = append(data, '\n')
	path, err := w.writeFile("cesium_orbits_snapshot.json", data)
	if err != nil {
		return err
	}
	w.record("cesium_orbits_snapshot_json", path, snap.SchemaVersion, snap.ModelVersion, snap.GeneratedAtUTC, data)
	return nil
}

// WriteManeuverPlans writes maneuver_plans.json, keyed by event_id.
func (w *Writer) WriteManeuverPlans(plans map[string]contracts.ManeuverPlanEntry, generatedAtUTC string) error {
	root := contracts.ManeuverPlans{
		SchemaVersion:  contracts.SchemaVersion,
		ArtifactType:   "maneuver_plans",
		ModelVersion:   contracts.ModelVersion,
		GeneratedAtUTC: generatedAtUTC,
		EventCount:     len(plans),
		PlansByEventID: plans,
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return errkind.New(errkind.ArtifactIOError, err, "artifact", "maneuver_plans.json")
	}
	data = append(data, '\n')
	path, err := w.writeFile("maneuver_plans.json", data)
	if err != nil {
		return err
	}
	w.record("maneuver_plans_json", path, contracts.SchemaVersion, contracts.ModelVersion, generatedAtUTC, data)
	return nil
}

// WriteManifest writes artifacts_latest.json last, covering every artifact
// recorded by prior Write* calls this run. Must be the final call in a run;
// on any fatal error earlier in the pipeline this must not be called, so the
// manifest on disk continues to reflect the last fully-completed run.
func (w *Writer) WriteManifest(runID string, generatedAtUTC string) error {
	names := make([]string, 0, len(w.entries))
	for name := range w.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	root := contracts.ArtifactManifest{
		SchemaVersion:  contracts.SchemaVersion,
		GeneratedAtUTC: generatedAtUTC,
		LatestRunID:    &runID,
		Artifacts:      w.entries,
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return errkind.New(errkind.ArtifactIOError, err, "artifact", "artifacts_latest.json")
	}
	data = append(data, '\n')
	if _, err := w.writeFile("artifacts_latest.json", data); err != nil {
		return err
	}
	return nil
}
