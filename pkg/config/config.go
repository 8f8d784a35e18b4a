// Package config loads the screening run's flat CLI-backed configuration,
// grounded on the teacher's pkg/config/config.go (YAML load/save,
// os.ExpandEnv, Validate) adapted from a nested scenario-style document to
// AstraGuard's flat ScreeningOptions.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoggingConfig mirrors the teacher's FrameworkConfig's logging fields.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScreeningOptions carries every numerical parameter the screening run
// needs, one field per spec §6 CLI flag.
type ScreeningOptions struct {
	DBPath       string   `yaml:"db"`
	StartUTC     string   `yaml:"start_utc"`
	Groups       []string `yaml:"groups"`
	MaxObjects   int      `yaml:"max_objects"`
	HorizonHours float64  `yaml:"horizon_hours"`
	DtS          float64  `yaml:"dt"`
	DtRefineS    float64  `yaml:"dt_refine"`
	VoxelKm      float64  `yaml:"voxel_km"`
	HBRM         float64  `yaml:"hbr_m"`
	SigmaPayload float64  `yaml:"sigma_payload_m"`
	SigmaDebris  float64  `yaml:"sigma_debris_m"`
	TopK         int      `yaml:"top_k"`
	Seed         int64    `yaml:"seed"`

	SnapshotDownsample int  `yaml:"snapshot_downsample"`
	SnapshotBalanced   bool `yaml:"snapshot_balanced"`
	SnapshotActive     int  `yaml:"snapshot_active"`
	SnapshotDebris     int  `yaml:"snapshot_debris"`
	SnapshotMax        int  `yaml:"snapshot_max"`

	TrendWindowMinutes    int     `yaml:"trend_window_minutes"`
	TrendCadenceSeconds   int     `yaml:"trend_cadence_seconds"`
	TrendThreshold        float64 `yaml:"trend_threshold"`
	TrendDeferHours       float64 `yaml:"trend_defer_hours"`
	TrendCriticalOverride float64 `yaml:"trend_critical_override"`

	MaxDeltaVMps          float64   `yaml:"max_delta_v_mps"`
	CandidateBurnOffsetsH []float64 `yaml:"candidate_burn_offsets_h"`
	LateBurnMinutes       float64   `yaml:"late_burn_minutes"`
	MissDistanceTargetM   float64   `yaml:"miss_distance_target_m"`
}

// Config is the top-level document loaded from YAML, analogous to the
// teacher's framework/docker/prometheus/... sections but flattened to what
// a screening run actually needs.
type Config struct {
	Logging   LoggingConfig    `yaml:"logging"`
	Screening ScreeningOptions `yaml:"screening"`
	OutputDir string           `yaml:"output_dir"`
}

// DefaultConfig matches run_screening.py's argparse defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Screening: ScreeningOptions{
			DBPath:       "data/processed/tles.sqlite",
			Groups:       []string{"ACTIVE", "COSMOS-1408-DEBRIS", "FENGYUN-1C-DEBRIS", "IRIDIUM-33-DEBRIS", "COSMOS-2251-DEBRIS"},
			MaxObjects:   3000,
			HorizonHours: 72.0,
			DtS:          600,
			DtRefineS:    60,
			VoxelKm:      50.0,
			HBRM:         25.0,
			SigmaPayload: 200.0,
			SigmaDebris:  500.0,
			TopK:         20,
			Seed:         42,

			SnapshotDownsample: 3,
			SnapshotBalanced:   true,
			SnapshotActive:     30,
			SnapshotDebris:     30,
			SnapshotMax:        200,

			TrendWindowMinutes:    30,
			TrendCadenceSeconds:   60,
			TrendThreshold:        1e-5,
			TrendDeferHours:       24.0,
			TrendCriticalOverride: 1e-3,

			MaxDeltaVMps:          0.5,
			CandidateBurnOffsetsH: []float64{24.0, 12.0, 6.0, 2.0},
			LateBurnMinutes:       30.0,
			MissDistanceTargetM:   1000.0,
		},
		OutputDir: "data/processed",
	}
}

// LoadDotEnv loads a local .env file into the process environment, if one
// exists, so the config file read afterwards can expand its variables; a
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads configuration from a YAML file, falling back to defaults if
// the file does not exist. Environment variables are expanded before
// parsing (e.g. ${ASTRAGUARD_DB_PATH}).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the screening options for the constraints the pipeline
// assumes hold, replacing the dropped scenario validator's role.
func (c *Config) Validate() error {
	s := c.Screening
	if s.DBPath == "" {
		return fmt.Errorf("screening.db is required")
	}
	if len(s.Groups) == 0 {
		return fmt.Errorf("screening.groups must be non-empty")
	}
	if s.MaxObjects <= 0 {
		return fmt.Errorf("screening.max_objects must be positive")
	}
	if s.HorizonHours <= 0 {
		return fmt.Errorf("screening.horizon_hours must be positive")
	}
	if s.DtS <= 0 {
		return fmt.Errorf("screening.dt must be positive")
	}
	if s.DtRefineS <= 0 {
		return fmt.Errorf("screening.dt_refine must be positive")
	}
	if s.VoxelKm <= 0 {
		return fmt.Errorf("screening.voxel_km must be positive")
	}
	if s.TopK <= 0 {
		return fmt.Errorf("screening.top_k must be positive")
	}
	if s.SnapshotDownsample <= 0 {
		return fmt.Errorf("screening.snapshot_downsample must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	return nil
}
