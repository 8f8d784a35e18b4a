// Package scoring implements the Risk Scorer (C5): canonicalizes each
// refined pair, optionally filters by pair-type admission policy, and
// computes assumed-covariance Pc and risk score, grounded on
// astragaurd/scripts/run_screening.py's risk-scoring stage.
package scoring

import (
	"sort"

	"github.com/astraguard/astraguard/pkg/contracts"
	"github.com/astraguard/astraguard/pkg/risk"
	"github.com/astraguard/astraguard/pkg/tca"
	"github.com/astraguard/astraguard/pkg/timeutil"
)

// Config carries the numerical parameters C5 needs, independent of any
// particular run's CLI flags.
type Config struct {
	CovModel        risk.CovarianceModel
	SigmaPayloadM   float64
	SigmaDebrisM    float64
	BaseSigma       risk.GroupBaseSigma
	HardBodyRadiusM float64
	AdmitPairFilter bool
	Assumptions     contracts.Assumptions
}

// Score canonicalizes, optionally filters, and scores every refined event,
// returning ConjunctionEvents sorted by (-risk_score, miss_m) per spec
// invariant (v). tca_index_snapshot is left at zero; the snapshot stage
// fills it in once the downsampled timeline exists.
func Score(events []tca.RefinedEvent, cfg Config) []contracts.ConjunctionEvent {
	out := make([]contracts.ConjunctionEvent, 0, len(events))

	for _, ev := range events {
		primaryGroup := ev.PrimaryTLE.SourceGroup
		secondaryGroup := ev.SecondaryTLE.SourceGroup

		if cfg.AdmitPairFilter && !risk.AdmitPairType(primaryGroup, secondaryGroup) {
			continue
		}

		pair := contracts.Canonicalize(ev.PrimaryTLE.NoradID, ev.SecondaryTLE.NoradID, primaryGroup, secondaryGroup)

		sigma := risk.SigmaPairForTime(cfg.CovModel, pair.LoGroup, pair.HiGroup, 0.0, cfg.SigmaPayloadM, cfg.SigmaDebrisM, cfg.BaseSigma)
		pc := risk.IsotropicPc(ev.MissDistanceM, sigma, cfg.HardBodyRadiusM, 16)

		tcaISO := timeutil.FormatISO(ev.TCAUTC)
		out = append(out, contracts.ConjunctionEvent{
			SchemaVersion:    contracts.SchemaVersion,
			EventID:          contracts.BuildEventID(pair.Lo, pair.Hi, tcaISO),
			PrimaryID:        pair.Lo,
			SecondaryID:      pair.Hi,
			TCAUTC:           tcaISO,
			MissDistanceM:    ev.MissDistanceM,
			RelativeSpeedMps: ev.RelativeSpeedMps,
			PcAssumed:        pc,
			RiskScore:        pc,
			WindowStartUTC:   timeutil.FormatISO(ev.WindowStartUTC),
			WindowEndUTC:     timeutil.FormatISO(ev.WindowEndUTC),
			ModelVersion:     contracts.ModelVersion,
			Assumptions:      cfg.Assumptions,
		})
	}

	sortEvents(out)
	return out
}

// TopK truncates a sorted event list to the top k (k<=0 yields empty).
func TopK(events []contracts.ConjunctionEvent, k int) []contracts.ConjunctionEvent {
	if k <= 0 {
		return nil
	}
	if k >= len(events) {
		return events
	}
	return events[:k]
}

func sortEvents(events []contracts.ConjunctionEvent) {
	// Score runs this over every admitted pair, not just the top-K; TopK
	// truncates afterward as a separate call, so this must stay O(n log n).
	sort.Slice(events, func(i, j int) bool { return less(events[i], events[j]) })
}

func less(a, b contracts.ConjunctionEvent) bool {
	if a.RiskScore != b.RiskScore {
		return a.RiskScore > b.RiskScore
	}
	if a.MissDistanceM != b.MissDistanceM {
		return a.MissDistanceM < b.MissDistanceM
	}
	return a.EventID < b.EventID
}
