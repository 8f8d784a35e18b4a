package contracts

// CesiumObject is one tracked object's position series in the ECEF
// downsampled snapshot.
type CesiumObject struct {
	ObjectIndex    int          `json:"object_index"`
	NoradID        uint32       `json:"norad_id"`
	Name           string       `json:"name"`
	SourceGroup    string       `json:"source_group"`
	PositionsECEFM [][3]float64 `json:"positions_ecef_m"`
}

// CesiumSnapshotMeta carries the native/export cadence and the downsample
// factor applied to reach it.
type CesiumSnapshotMeta struct {
	NativeDtS      float64 `json:"native_dt_s"`
	ExportDtS      float64 `json:"export_dt_s"`
	DownsampleStep int     `json:"downsample_step"`
}

// CesiumSnapshot is cesium_orbits_snapshot.json's root object.
type CesiumSnapshot struct {
	SchemaVersion  string             `json:"schema_version"`
	ArtifactType   string             `json:"artifact_type"`
	Frame          string             `json:"frame"`
	Units          string             `json:"units"`
	ModelVersion   string             `json:"model_version"`
	GeneratedAtUTC string             `json:"generated_at_utc"`
	TimesUTC       []string           `json:"times_utc"`
	Meta           CesiumSnapshotMeta `json:"meta"`
	Notes          string             `json:"notes"`
	Objects        []CesiumObject     `json:"objects"`
}
