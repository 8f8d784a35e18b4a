package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/astraguard/astraguard/pkg/catalog"
	"github.com/astraguard/astraguard/pkg/config"
	"github.com/astraguard/astraguard/pkg/emergency"
	"github.com/astraguard/astraguard/pkg/maneuver"
	"github.com/astraguard/astraguard/pkg/pipeline"
	"github.com/astraguard/astraguard/pkg/reporting"
	"github.com/astraguard/astraguard/pkg/risk"
	"github.com/astraguard/astraguard/pkg/timeutil"
	"github.com/astraguard/astraguard/pkg/trend"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Args:  cobra.NoArgs,
	Short: "Run one conjunction screening pass",
	Long:  `Loads the TLE catalog, propagates, screens for close approaches, and writes artifacts.`,
	RunE:  runScreen,
}

func init() {
	f := screenCmd.Flags()
	f.String("db", "", "path to the TLE store (overrides config)")
	f.String("start-utc", "", "screening epoch, ISO-8601 (default: now)")
	f.StringSlice("groups", nil, "catalog source groups (overrides config)")
	f.Int("max-objects", 0, "maximum objects to load (0: use config)")
	f.Float64("horizon-hours", 0, "propagation horizon in hours (0: use config)")
	f.Float64("dt", 0, "coarse propagation step in seconds (0: use config)")
	f.Float64("dt-refine", 0, "refinement step in seconds (0: use config)")
	f.Float64("voxel-km", 0, "spatial hash voxel size in km (0: use config)")
	f.Float64("hbr-m", 0, "combined hard-body radius in meters (0: use config)")
	f.Float64("sigma-payload-m", 0, "payload position sigma in meters (0: use config)")
	f.Float64("sigma-debris-m", 0, "debris position sigma in meters (0: use config)")
	f.Int("top-k", 0, "number of top events to retain (0: use config)")
	f.Int64("seed", 0, "RNG seed for balanced snapshot sampling")

	f.Int("snapshot-downsample", 0, "snapshot time-step downsample factor (0: use config)")
	f.Bool("snapshot-balanced", true, "balance snapshot object sampling across active/debris")
	f.Int("snapshot-active", 0, "target number of active objects in a balanced snapshot (0: use config)")
	f.Int("snapshot-debris", 0, "target number of non-active objects in a balanced snapshot (0: use config)")
	f.Int("snapshot-max", 0, "snapshot object cap (0: use config)")

	f.Int("trend-window-minutes", 0, "trend series half-window in minutes (0: use config)")
	f.Int("trend-cadence-seconds", 0, "trend series sample cadence in seconds (0: use config)")
	f.Float64("trend-threshold", 0, "trend escalation Pc threshold (0: use config)")
	f.Float64("trend-defer-hours", 0, "hours to TCA beyond which a below-override event is deferred (0: use config)")
	f.Float64("trend-critical-override", 0, "Pc at or above which the far-from-TCA deferral is skipped (0: use config)")

	f.Float64("max-delta-v-mps", 0, "maximum candidate maneuver delta-v in m/s (0: use config)")
	f.String("candidate-burn-offsets-h", "", "comma-separated candidate burn lead times in hours")
	f.Float64("late-burn-minutes", 0, "lead time before TCA of the late-baseline reference burn, in minutes (0: use config)")
	f.Float64("miss-distance-target-m", 0, "target post-burn miss distance in meters (0: use config)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyScreenFlagOverrides(cmd, &cfg.Screening); err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := reporting.LogLevel(cfg.Logging.Level)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Logging.Format),
		Output: os.Stdout,
	})
	logger.Info("astraguard screening starting", "version", version)

	now := time.Now().UTC()
	if cfg.Screening.StartUTC != "" {
		now, err = timeutil.ParseISO(cfg.Screening.StartUTC)
		if err != nil {
			return fmt.Errorf("invalid --start-utc: %w", err)
		}
	}

	store, err := catalog.OpenSQLiteStore(cfg.Screening.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open TLE store %s: %w", cfg.Screening.DBPath, err)
	}
	defer store.Close()

	opts := screeningOptionsToPipelineOptions(cfg.Screening, cfg.OutputDir)

	abort := emergency.New(emergency.Config{EnableSignalHandlers: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	abort.OnStop(cancel)
	abort.Start(ctx)

	driver := pipeline.New(store, opts, logger)
	result, runErr := driver.Run(ctx, now)

	if runErr != nil {
		logger.Warn("screening run failed", "stage", result.Stage.String(), "error", runErr)
		return fmt.Errorf("screening failed: %w", runErr)
	}

	logger.Info("screening run completed",
		"run_id", result.RunID,
		"events_found", result.EventsFound,
		"events_scored", result.EventsScored,
		"top_k", result.TopKCount,
	)
	return nil
}

// applyScreenFlagOverrides copies any explicitly-set CLI flags over the
// loaded config, so an unset flag falls back to config.yaml rather than
// stomping it with a zero value.
func applyScreenFlagOverrides(cmd *cobra.Command, s *config.ScreeningOptions) error {
	f := cmd.Flags()

	if f.Changed("db") {
		s.DBPath, _ = f.GetString("db")
	}
	if f.Changed("start-utc") {
		s.StartUTC, _ = f.GetString("start-utc")
	}
	if f.Changed("groups") {
		s.Groups, _ = f.GetStringSlice("groups")
	}
	if f.Changed("max-objects") {
		s.MaxObjects, _ = f.GetInt("max-objects")
	}
	if f.Changed("horizon-hours") {
		s.HorizonHours, _ = f.GetFloat64("horizon-hours")
	}
	if f.Changed("dt") {
		s.DtS, _ = f.GetFloat64("dt")
	}
	if f.Changed("dt-refine") {
		s.DtRefineS, _ = f.GetFloat64("dt-refine")
	}
	if f.Changed("voxel-km") {
		s.VoxelKm, _ = f.GetFloat64("voxel-km")
	}
	if f.Changed("hbr-m") {
		s.HBRM, _ = f.GetFloat64("hbr-m")
	}
	if f.Changed("sigma-payload-m") {
		s.SigmaPayload, _ = f.GetFloat64("sigma-payload-m")
	}
	if f.Changed("sigma-debris-m") {
		s.SigmaDebris, _ = f.GetFloat64("sigma-debris-m")
	}
	if f.Changed("top-k") {
		s.TopK, _ = f.GetInt("top-k")
	}
	if f.Changed("seed") {
		s.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("snapshot-downsample") {
		s.SnapshotDownsample, _ = f.GetInt("snapshot-downsample")
	}
	if f.Changed("snapshot-balanced") {
		s.SnapshotBalanced, _ = f.GetBool("snapshot-balanced")
	}
	if f.Changed("snapshot-active") {
		s.SnapshotActive, _ = f.GetInt("snapshot-active")
	}
	if f.Changed("snapshot-debris") {
		s.SnapshotDebris, _ = f.GetInt("snapshot-debris")
	}
	if f.Changed("snapshot-max") {
		s.SnapshotMax, _ = f.GetInt("snapshot-max")
	}
	if f.Changed("trend-window-minutes") {
		s.TrendWindowMinutes, _ = f.GetInt("trend-window-minutes")
	}
	if f.Changed("trend-cadence-seconds") {
		s.TrendCadenceSeconds, _ = f.GetInt("trend-cadence-seconds")
	}
	if f.Changed("trend-threshold") {
		s.TrendThreshold, _ = f.GetFloat64("trend-threshold")
	}
	if f.Changed("trend-defer-hours") {
		s.TrendDeferHours, _ = f.GetFloat64("trend-defer-hours")
	}
	if f.Changed("trend-critical-override") {
		s.TrendCriticalOverride, _ = f.GetFloat64("trend-critical-override")
	}
	if f.Changed("max-delta-v-mps") {
		s.MaxDeltaVMps, _ = f.GetFloat64("max-delta-v-mps")
	}
	if f.Changed("candidate-burn-offsets-h") {
		raw, _ := f.GetString("candidate-burn-offsets-h")
		offsets, err := parseFloatList(raw)
		if err != nil {
			return fmt.Errorf("--candidate-burn-offsets-h: %w", err)
		}
		s.CandidateBurnOffsetsH = offsets
	}
	if f.Changed("late-burn-minutes") {
		s.LateBurnMinutes, _ = f.GetFloat64("late-burn-minutes")
	}
	if f.Changed("miss-distance-target-m") {
		s.MissDistanceTargetM, _ = f.GetFloat64("miss-distance-target-m")
	}

	return nil
}

func parseFloatList(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// screeningOptionsToPipelineOptions maps the flat config document onto the
// pipeline's Options, filling the derived sub-configs (trend, maneuver
// policy) it owns.
func screeningOptionsToPipelineOptions(s config.ScreeningOptions, outputDir string) pipeline.Options {
	trendCfg := trend.DefaultConfig()
	trendCfg.WindowMinutes = s.TrendWindowMinutes
	trendCfg.CadenceSeconds = s.TrendCadenceSeconds
	trendCfg.Threshold = s.TrendThreshold
	trendCfg.DeferHours = s.TrendDeferHours
	trendCfg.CriticalOverride = s.TrendCriticalOverride
	trendCfg.HardBodyRadiusM = s.HBRM
	trendCfg.SigmaPayloadM = s.SigmaPayload
	trendCfg.SigmaDebrisM = s.SigmaDebris

	maneuverPolicy := maneuver.DefaultPolicy(s.MissDistanceTargetM)
	maneuverPolicy.MaxDeltaVMps = s.MaxDeltaVMps
	if len(s.CandidateBurnOffsetsH) > 0 {
		maneuverPolicy.CandidateOffsetsH = s.CandidateBurnOffsetsH
	}
	maneuverPolicy.LateBurnMinutes = s.LateBurnMinutes

	return pipeline.Options{
		Groups:          s.Groups,
		MaxObjects:      s.MaxObjects,
		HorizonHours:    s.HorizonHours,
		DtS:             s.DtS,
		DtRefineS:       s.DtRefineS,
		VoxelKm:         s.VoxelKm,
		HardBodyRadiusM: s.HBRM,
		SigmaPayloadM:   s.SigmaPayload,
		SigmaDebrisM:    s.SigmaDebris,
		CovModel:        risk.CovAnisotropic,
		BaseSigma:       trendCfg.BaseSigma,
		AdmitPairFilter: true,
		TopK:            s.TopK,
		Seed:            s.Seed,

		SnapshotBalanced:       s.SnapshotBalanced,
		SnapshotActiveTarget:   s.SnapshotActive,
		SnapshotDebrisTarget:   s.SnapshotDebris,
		SnapshotMaxObjects:     s.SnapshotMax,
		SnapshotDownsampleStep: s.SnapshotDownsample,

		Trend: trendCfg,

		ManeuverPolicy: maneuverPolicy,

		OutputDir: outputDir,
	}
}
