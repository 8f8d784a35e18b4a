package contracts

// TrendMetrics is the wire form of trend.Metrics plus the gate outcome,
// embedded in each ManeuverPlanEntry for auditability.
type TrendMetrics struct {
	PcPeak           float64 `json:"pc_peak"`
	PcSlope          float64 `json:"pc_slope"`
	PcStability      float64 `json:"pc_stability"`
	WindowMinutes    int     `json:"window_minutes"`
	CadenceSeconds   int     `json:"cadence_seconds"`
	SampleCount      int     `json:"sample_count"`
	TimeToTCAHours   float64 `json:"time_to_tca_hours"`
	Threshold        float64 `json:"threshold"`
	CriticalOverride float64 `json:"critical_override"`
	GateDecision     string  `json:"gate_decision"`
	GateReasonCode   string  `json:"gate_reason_code"`
	GateReason       string  `json:"gate_reason"`
}

// PcSample is the wire form of trend.PcSample.
type PcSample struct {
	TUTC  string  `json:"t_utc"`
	MissM float64 `json:"miss_m"`
	Pc    float64 `json:"pc"`
}

// ManeuverPlan is the wire form of maneuver.Plan.
type ManeuverPlan struct {
	BurnTimeUTC      *string  `json:"burn_time_utc"`
	Frame            string   `json:"frame"`
	Direction        *string  `json:"direction"`
	DeltaVMps        *float64 `json:"delta_v_mps"`
	ExpectedMissM    float64  `json:"expected_miss_m"`
	Feasibility      string   `json:"feasibility"`
	EarlyVsLateRatio *float64 `json:"early_vs_late_ratio"`
	Notes            string   `json:"notes"`
}

// ManeuverPlanEntry is one value of maneuver_plans.json's plans_by_event_id
// map.
type ManeuverPlanEntry struct {
	EventID       string        `json:"event_id"`
	TrendMetrics  TrendMetrics  `json:"trend_metrics"`
	PcSeries      []PcSample    `json:"pc_series"`
	DecisionMode  string        `json:"decision_mode_hint"`
	DeferUntilUTC *string       `json:"defer_until_utc"`
	ManeuverPlan  *ManeuverPlan `json:"maneuver_plan"`
}
