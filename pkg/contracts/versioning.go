// Package contracts defines the wire-format types AstraGuard emits to
// artifact files: ConjunctionEvent, ManeuverPlanEntry, CesiumSnapshot, and
// ArtifactManifest, grounded on the schemas in
// astragaurd/scripts/run_screening.py's artifact-writing section.
package contracts

// SchemaVersion is the payload schema version stamped on every artifact.
const SchemaVersion = "1.1.0"

// ModelVersion names the orbital numerical model that produced these
// artifacts.
const ModelVersion = "step2_v1_assumed_covariance"

// SupportedSchemaVersions advertises the set of payload schemas this build
// can read.
var SupportedSchemaVersions = map[string]bool{
	SchemaVersion: true,
}
