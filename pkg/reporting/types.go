package reporting

import "time"

// RunStatus mirrors the teacher's TestStatus enum, narrowed to the
// outcomes a screening run can reach.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunSummary is a persisted record of one screening run, kept alongside the
// domain artifacts (top_conjunctions.json and friends) as a lightweight
// history log a dashboard or CLI can list without parsing the full
// artifact set. It deliberately carries counts only, not the events
// themselves; those live in the artifacts package's JSON/CSV outputs.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`

	Status  RunStatus `json:"status"`
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`

	FinalStage string `json:"final_stage"`

	Groups     []string `json:"groups"`
	MaxObjects int      `json:"max_objects"`

	EventsFound    int `json:"events_found"`
	EventsScored   int `json:"events_scored"`
	TopKCount      int `json:"top_k_count"`
	ObjectsDropped int `json:"objects_dropped"`
	PairsDropped   int `json:"pairs_dropped"`

	Errors []string `json:"errors,omitempty"`
}
