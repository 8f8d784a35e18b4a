package contracts

// TopConjunctions is top_conjunctions.json's root object.
type TopConjunctions struct {
	SchemaVersion  string             `json:"schema_version"`
	ArtifactType   string             `json:"artifact_type"`
	ModelVersion   string             `json:"model_version"`
	GeneratedAtUTC string             `json:"generated_at_utc"`
	EventCount     int                `json:"event_count"`
	Events         []ConjunctionEvent `json:"events"`
}

// ManeuverPlans is maneuver_plans.json's root object.
type ManeuverPlans struct {
	SchemaVersion  string                       `json:"schema_version"`
	ArtifactType   string                       `json:"artifact_type"`
	ModelVersion   string                       `json:"model_version"`
	GeneratedAtUTC string                       `json:"generated_at_utc"`
	EventCount     int                          `json:"event_count"`
	PlansByEventID map[string]ManeuverPlanEntry `json:"plans_by_event_id"`
}

// ArtifactEntry is one value of ArtifactManifest.Artifacts.
type ArtifactEntry struct {
	Path           string `json:"path"`
	SchemaVersion  string `json:"schema_version"`
	ModelVersion   string `json:"model_version"`
	SHA256         string `json:"sha256"`
	GeneratedAtUTC string `json:"generated_at_utc"`
}

// ArtifactManifest is artifacts_latest.json's root object, always the last
// artifact written in a run.
type ArtifactManifest struct {
	SchemaVersion  string                   `json:"schema_version"`
	GeneratedAtUTC string                   `json:"generated_at_utc"`
	LatestRunID    *string                  `json:"latest_run_id"`
	Artifacts      map[string]ArtifactEntry `json:"artifacts"`
}
