package contracts

import "fmt"

// Assumptions records the run's numerical configuration alongside each
// event, so a downstream reader never has to infer what produced a number.
type Assumptions struct {
	DtS               float64  `json:"dt_s"`
	DtRefineS         float64  `json:"dt_refine_s"`
	HorizonHours      float64  `json:"horizon_hours"`
	HardBodyRadiusM   float64  `json:"hard_body_radius_m"`
	SigmaPayloadM     float64  `json:"sigma_payload_m"`
	SigmaDebrisM      float64  `json:"sigma_debris_m"`
	VoxelKm           float64  `json:"voxel_km"`
	CatalogGroupsUsed []string `json:"catalog_groups_used"`
}

// ConjunctionEvent is the canonical ranked entity, written to
// top_conjunctions.json and joined against by downstream collaborators via
// EventID.
type ConjunctionEvent struct {
	SchemaVersion     string      `json:"schema_version"`
	EventID           string      `json:"event_id"`
	PrimaryID         uint32      `json:"primary_id"`
	SecondaryID       uint32      `json:"secondary_id"`
	TCAUTC            string      `json:"tca_utc"`
	TCAIndexSnapshot  int         `json:"tca_index_snapshot"`
	MissDistanceM     float64     `json:"miss_distance_m"`
	RelativeSpeedMps  float64     `json:"relative_speed_mps"`
	PcAssumed         float64     `json:"pc_assumed"`
	RiskScore         float64     `json:"risk_score"`
	WindowStartUTC    string      `json:"window_start_utc"`
	WindowEndUTC      string      `json:"window_end_utc"`
	ModelVersion      string      `json:"model_version"`
	Assumptions       Assumptions `json:"assumptions"`
}

// BuildEventID produces the deterministic event_id
// "EVT-{primaryID}-{secondaryID}-{tcaUTC}". Caller must have already
// canonicalized primaryID < secondaryID.
func BuildEventID(primaryID, secondaryID uint32, tcaUTC string) string {
	return fmt.Sprintf("EVT-%d-%d-%s", primaryID, secondaryID, tcaUTC)
}

// CanonicalPair orders two object identities so Lo < Hi, reporting whether a
// swap was needed so the caller can swap any id-keyed side data (groups,
// TLEs) in lockstep.
type CanonicalPair struct {
	Lo, Hi   uint32
	LoGroup  string
	HiGroup  string
	Swapped  bool
}

// Canonicalize orders (aID, aGroup) and (bID, bGroup) so the result's Lo <
// Hi, matching spec invariant (i): primary_id < secondary_id.
func Canonicalize(aID, bID uint32, aGroup, bGroup string) CanonicalPair {
	if aID < bID {
		return CanonicalPair{Lo: aID, Hi: bID, LoGroup: aGroup, HiGroup: bGroup, Swapped: false}
	}
	return CanonicalPair{Lo: bID, Hi: aID, LoGroup: bGroup, HiGroup: aGroup, Swapped: true}
}
