// Package pipeline implements the Pipeline Driver (C10): a stage-ordered
// composition of C1-C9 with per-stage timing/logging and fail-fast
// cancellation, grounded on pkg/core/orchestrator/orchestrator.go's
// TestState/transitionState/sequential-executeX pattern.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/astraguard/astraguard/pkg/artifacts"
	"github.com/astraguard/astraguard/pkg/catalog"
	"github.com/astraguard/astraguard/pkg/contracts"
	"github.com/astraguard/astraguard/pkg/errkind"
	"github.com/astraguard/astraguard/pkg/gate"
	"github.com/astraguard/astraguard/pkg/maneuver"
	"github.com/astraguard/astraguard/pkg/metrics"
	"github.com/astraguard/astraguard/pkg/propagation"
	"github.com/astraguard/astraguard/pkg/reporting"
	"github.com/astraguard/astraguard/pkg/risk"
	"github.com/astraguard/astraguard/pkg/scoring"
	"github.com/astraguard/astraguard/pkg/sgp4"
	"github.com/astraguard/astraguard/pkg/snapshot"
	"github.com/astraguard/astraguard/pkg/spatialhash"
	"github.com/astraguard/astraguard/pkg/tca"
	"github.com/astraguard/astraguard/pkg/timeutil"
	"github.com/astraguard/astraguard/pkg/trend"
)

// Stage enumerates the pipeline's steps in execution order, the AstraGuard
// analogue of orchestrator.TestState.
type Stage int

const (
	StageLoadCatalog Stage = iota
	StagePropagate
	StageCandidates
	StageRefine
	StageScore
	StageTrendAndGate
	StageManeuver
	StageSnapshot
	StageLinkage
	StageArtifacts
	StageManifest
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageLoadCatalog:
		return "LOAD_CATALOG"
	case StagePropagate:
		return "PROPAGATE"
	case StageCandidates:
		return "CANDIDATES"
	case StageRefine:
		return "REFINE"
	case StageScore:
		return "SCORE"
	case StageTrendAndGate:
		return "TREND_AND_GATE"
	case StageManeuver:
		return "MANEUVER"
	case StageSnapshot:
		return "SNAPSHOT"
	case StageLinkage:
		return "LINKAGE"
	case StageArtifacts:
		return "ARTIFACTS"
	case StageManifest:
		return "MANIFEST"
	case StageCompleted:
		return "COMPLETED"
	case StageFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Options carries every numerical and CLI-sourced parameter a run needs.
type Options struct {
	Groups            []string
	MaxObjects        int
	HorizonHours      float64
	DtS               float64
	DtRefineS         float64
	VoxelKm           float64
	HardBodyRadiusM   float64
	SigmaPayloadM     float64
	SigmaDebrisM      float64
	CovModel          risk.CovarianceModel
	BaseSigma         risk.GroupBaseSigma
	AdmitPairFilter   bool
	TopK              int
	Seed              int64

	SnapshotBalanced       bool
	SnapshotActiveTarget   int
	SnapshotDebrisTarget   int
	SnapshotMaxObjects     int
	SnapshotDownsampleStep int

	Trend trend.Config

	ManeuverPolicy maneuver.Policy

	OutputDir string
}

// Result summarizes a completed run for the caller (CLI exit-code logic).
type Result struct {
	RunID          string
	Stage          Stage
	EventsFound    int
	EventsScored   int
	TopKCount      int
	ObjectsDropped int
	PairsDropped   int
}

// Driver runs the full screening pipeline against a catalog source.
type Driver struct {
	source  catalog.Source
	opts    Options
	logger  *reporting.Logger
	metrics *metrics.Registry
	history *reporting.Storage
}

// New builds a Driver. It keeps a run-history log under OutputDir/runs,
// separate from the domain artifacts written by pkg/artifacts; a failure
// to open the history store is logged and otherwise ignored, since run
// history is diagnostic, not load-bearing.
func New(source catalog.Source, opts Options, logger *reporting.Logger) *Driver {
	d := &Driver{source: source, opts: opts, logger: logger, metrics: metrics.New()}
	if opts.OutputDir != "" {
		history, err := reporting.NewStorage(filepath.Join(opts.OutputDir, "runs"), 50, logger)
		if err != nil {
			logger.Warn("failed to open run history store", "error", err)
		} else {
			d.history = history
		}
	}
	return d
}

// saveRunSummary persists a RunSummary for this run, success or failure.
// It is best-effort: a failure to save history must never mask the run's
// own error.
func (d *Driver) saveRunSummary(result *Result, groups []string, startedAt time.Time, runErr error) {
	if d.history == nil {
		return
	}
	endedAt := time.Now().UTC()
	summary := &reporting.RunSummary{
		RunID:          result.RunID,
		StartTime:      startedAt,
		EndTime:        endedAt,
		Duration:       endedAt.Sub(startedAt).String(),
		FinalStage:     result.Stage.String(),
		Groups:         groups,
		MaxObjects:     d.opts.MaxObjects,
		EventsFound:    result.EventsFound,
		EventsScored:   result.EventsScored,
		TopKCount:      result.TopKCount,
		ObjectsDropped: result.ObjectsDropped,
		PairsDropped:   result.PairsDropped,
	}
	if runErr != nil {
		summary.Status = reporting.RunStatusFailed
		summary.Success = false
		summary.Message = runErr.Error()
		summary.Errors = []string{runErr.Error()}
	} else {
		summary.Status = reporting.RunStatusCompleted
		summary.Success = true
	}
	if _, err := d.history.SaveRunSummary(summary); err != nil {
		d.logger.Warn("failed to save run summary", "error", err)
	}
}

func (d *Driver) transition(result *Result, stage Stage) {
	result.Stage = stage
	d.logger.Info("stage transition", "stage", stage.String())
}

func (d *Driver) timeStage(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	d.metrics.StageDuration.WithLabelValues(stage.String()).Observe(time.Since(start).Seconds())
	return err
}

// Run executes every stage in order, aborting before any artifact is
// written if ctx is cancelled at a stage boundary. On fatal error (catalog
// or artifact I/O, config) it returns early without writing the manifest, so
// a previously-successful run's manifest keeps pointing at the last good
// run per spec invariant: the manifest is never updated by a failed run.
func (d *Driver) Run(ctx context.Context, now time.Time) (result *Result, err error) {
	runID := uuid.NewString()
	result = &Result{RunID: runID}
	startedAt := time.Now().UTC()
	var groups []string
	defer func() {
		d.saveRunSummary(result, groups, startedAt, err)
	}()

	groups = catalog.NormalizeGroups(d.opts.Groups)
	if len(groups) == 0 {
		return result, errkind.New(errkind.ConfigError, fmt.Errorf("no valid catalog groups after normalization"), "stage", StageLoadCatalog.String())
	}

	// LOAD_CATALOG
	d.transition(result, StageLoadCatalog)
	var tles []catalog.TLE
	if err := d.timeStage(StageLoadCatalog, func() error {
		rows, _, warnings, err := catalog.Load(d.source, groups, d.opts.MaxObjects, true, true)
		for _, w := range warnings {
			d.logger.Warn("catalog load warning", "warning", w)
		}
		if err != nil {
			return errkind.New(errkind.CatalogIOError, err, "stage", StageLoadCatalog.String())
		}
		if len(rows) == 0 {
			return errkind.New(errkind.CatalogIOError, fmt.Errorf("no TLEs loaded for screening"), "groups", fmt.Sprint(groups))
		}
		tles = rows
		return nil
	}); err != nil {
		return result, err
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// PROPAGATE
	d.transition(result, StagePropagate)
	var grid *propagation.Grid
	if err := d.timeStage(StagePropagate, func() error {
		g, err := propagation.Run(tles, now, durationHours(d.opts.HorizonHours), durationSeconds(d.opts.DtS))
		if err != nil {
			return errkind.New(errkind.SGP4InitError, err, "stage", StagePropagate.String())
		}
		d.metrics.ObjectsDropped.WithLabelValues("sgp4_init_or_propagate").Add(float64(g.DroppedCount))
		grid = g
		return nil
	}); err != nil {
		return result, err
	}
	result.ObjectsDropped = grid.DroppedCount

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// CANDIDATES
	d.transition(result, StageCandidates)
	var stream *spatialhash.Stream
	if err := d.timeStage(StageCandidates, func() error {
		stream = spatialhash.NewStream(grid.PositionsKm, d.opts.VoxelKm)
		return nil
	}); err != nil {
		return result, err
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// REFINE
	d.transition(result, StageRefine)
	var refined []tca.RefinedEvent
	if err := d.timeStage(StageRefine, func() error {
		events, dropped := tca.Refine(grid, stream, durationSeconds(d.opts.DtRefineS), tca.DefaultRefineHalfWindowSteps)
		d.metrics.PairsDropped.WithLabelValues("sgp4_refine_failure").Add(float64(dropped))
		refined = events
		result.PairsDropped = dropped
		result.EventsFound = len(events)
		d.metrics.EventsFound.Add(float64(len(events)))
		return nil
	}); err != nil {
		return result, err
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// SCORE
	d.transition(result, StageScore)
	var scored []contracts.ConjunctionEvent
	assumptions := contracts.Assumptions{
		DtS:               d.opts.DtS,
		DtRefineS:         d.opts.DtRefineS,
		HorizonHours:      d.opts.HorizonHours,
		HardBodyRadiusM:   d.opts.HardBodyRadiusM,
		SigmaPayloadM:     d.opts.SigmaPayloadM,
		SigmaDebrisM:      d.opts.SigmaDebrisM,
		VoxelKm:           d.opts.VoxelKm,
		CatalogGroupsUsed: groups,
	}
	if err := d.timeStage(StageScore, func() error {
		scored = scoring.Score(refined, scoring.Config{
			CovModel:        d.opts.CovModel,
			SigmaPayloadM:   d.opts.SigmaPayloadM,
			SigmaDebrisM:    d.opts.SigmaDebrisM,
			BaseSigma:       d.opts.BaseSigma,
			HardBodyRadiusM: d.opts.HardBodyRadiusM,
			AdmitPairFilter: d.opts.AdmitPairFilter,
			Assumptions:     assumptions,
		})
		d.metrics.EventsScored.Add(float64(len(scored)))
		result.EventsScored = len(scored)
		return nil
	}); err != nil {
		return result, err
	}

	topEvents := scoring.TopK(scored, d.opts.TopK)
	result.TopKCount = len(topEvents)

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// TREND_AND_GATE + MANEUVER: build per-event artifacts keyed by event_id.
	d.transition(result, StageTrendAndGate)
	satByIdx := make(map[int]*sgp4.Satellite, len(grid.Satellites))
	for i, sat := range grid.Satellites {
		satByIdx[i] = sat
	}
	refinedByIdx := indexRefinedEvents(refined)

	plans := make(map[string]contracts.ManeuverPlanEntry, len(topEvents))
	if err := d.timeStage(StageTrendAndGate, func() error {
		for _, ev := range topEvents {
			re, ok := refinedByIdx[ev.EventID]
			var series []trend.PcSample
			if ok {
				primary := satByIdx[re.I]
				secondary := satByIdx[re.J]
				series = trend.BuildLocalPcSeries(re.TCAUTC, primary, secondary, re.PrimaryTLE.SourceGroup, re.SecondaryTLE.SourceGroup, d.opts.Trend)
			}
			tcaTime, _ := timeutil.ParseISO(ev.TCAUTC)
			if series == nil {
				series = trend.FallbackSeries(tcaTime, ev.MissDistanceM, ev.PcAssumed)
			}
			tm := trend.ComputeTrendMetrics(series, tcaTime, now, d.opts.Trend)
			gr := gate.Classify(tm, tcaTime, now, d.opts.Trend.DeferHours)

			entry := contracts.ManeuverPlanEntry{
				EventID: ev.EventID,
				TrendMetrics: contracts.TrendMetrics{
					PcPeak: tm.PcPeak, PcSlope: tm.PcSlope, PcStability: tm.PcStability,
					WindowMinutes: tm.WindowMinutes, CadenceSeconds: tm.CadenceSeconds,
					SampleCount: tm.SampleCount, TimeToTCAHours: tm.TimeToTCAHours,
					Threshold: tm.Threshold, CriticalOverride: tm.CriticalOverride,
					GateDecision: string(gr.Decision), GateReasonCode: string(gr.ReasonCode), GateReason: gr.Reason,
				},
				PcSeries:     toWirePcSeries(series),
				DecisionMode: string(gr.Decision),
			}
			if gr.DeferUntilUTC != nil {
				s := timeutil.FormatISO(*gr.DeferUntilUTC)
				entry.DeferUntilUTC = &s
			}

			if gr.Decision == gate.DecisionManeuver {
				plan := maneuver.PlanMinDeltaV(tcaTime, ev.MissDistanceM, d.opts.ManeuverPolicy, now)
				entry.ManeuverPlan = toWireManeuverPlan(plan)
			}

			plans[ev.EventID] = entry
		}
		return nil
	}); err != nil {
		return result, err
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// SNAPSHOT
	d.transition(result, StageSnapshot)
	required := make(map[uint32]bool)
	for _, ev := range topEvents {
		required[ev.PrimaryID] = true
		required[ev.SecondaryID] = true
	}
	var snap contracts.CesiumSnapshot
	if err := d.timeStage(StageSnapshot, func() error {
		indices, warning := snapshot.SelectIndices(grid, snapshot.SelectionOptions{
			Balanced:         d.opts.SnapshotBalanced,
			ActiveTarget:     d.opts.SnapshotActiveTarget,
			DebrisTarget:     d.opts.SnapshotDebrisTarget,
			MaxObjects:       d.opts.SnapshotMaxObjects,
			RequiredNoradIDs: required,
			Seed:             d.opts.Seed,
		})
		if warning != "" {
			d.logger.Warn("snapshot selection warning", "warning", warning)
		}
		snap = snapshot.Build(grid, indices, d.opts.SnapshotDownsampleStep, d.opts.DtS, now)
		return nil
	}); err != nil {
		return result, err
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// LINKAGE
	d.transition(result, StageLinkage)
	var kept []contracts.ConjunctionEvent
	if err := d.timeStage(StageLinkage, func() error {
		survivors, dropped := snapshot.LinkageCheck(topEvents, snap)
		if dropped > 0 {
			d.logger.Warn("linkage check dropped events", "dropped", dropped)
		}
		kept = survivors
		return nil
	}); err != nil {
		return result, err
	}
	keptPlans := make(map[string]contracts.ManeuverPlanEntry, len(kept))
	for _, ev := range kept {
		if p, ok := plans[ev.EventID]; ok {
			keptPlans[ev.EventID] = p
		}
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// ARTIFACTS + MANIFEST
	d.transition(result, StageArtifacts)
	writer, err := artifacts.NewWriter(d.opts.OutputDir)
	if err != nil {
		return result, err
	}
	generatedAtUTC := timeutil.FormatISO(now)
	if err := d.timeStage(StageArtifacts, func() error {
		if err := writer.WriteCesiumSnapshot(snap); err != nil {
			return err
		}
		if err := writer.WriteTopConjunctions(kept, generatedAtUTC); err != nil {
			return err
		}
		if err := writer.WriteManeuverPlans(keptPlans, generatedAtUTC); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return result, err
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	d.transition(result, StageManifest)
	if err := writer.WriteManifest(runID, generatedAtUTC); err != nil {
		return result, err
	}

	d.transition(result, StageCompleted)
	result.Stage = StageCompleted
	d.logger.Info("run completed", "metrics", d.metrics.Snapshot())
	return result, nil
}

func durationHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func durationSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func indexRefinedEvents(events []tca.RefinedEvent) map[string]tca.RefinedEvent {
	out := make(map[string]tca.RefinedEvent, len(events))
	for _, ev := range events {
		pair := contracts.Canonicalize(ev.PrimaryTLE.NoradID, ev.SecondaryTLE.NoradID, ev.PrimaryTLE.SourceGroup, ev.SecondaryTLE.SourceGroup)
		eventID := contracts.BuildEventID(pair.Lo, pair.Hi, timeutil.FormatISO(ev.TCAUTC))
		out[eventID] = ev
	}
	return out
}

func toWirePcSeries(series []trend.PcSample) []contracts.PcSample {
	out := make([]contracts.PcSample, len(series))
	for i, s := range series {
		out[i] = contracts.PcSample{TUTC: timeutil.FormatISO(s.TUTC), MissM: s.MissM, Pc: s.Pc}
	}
	return out
}

func toWireManeuverPlan(plan maneuver.Plan) *contracts.ManeuverPlan {
	out := &contracts.ManeuverPlan{
		Frame:         plan.Frame,
		ExpectedMissM: plan.ExpectedMissM,
		Feasibility:   plan.Feasibility,
		Notes:         plan.Notes,
	}
	if plan.BurnTimeUTC != nil {
		s := timeutil.FormatISO(*plan.BurnTimeUTC)
		out.BurnTimeUTC = &s
	}
	if plan.Direction != nil {
		s := string(*plan.Direction)
		out.Direction = &s
	}
	out.DeltaVMps = plan.DeltaVMps
	out.EarlyVsLateRatio = plan.EarlyVsLateRatio
	return out
}
