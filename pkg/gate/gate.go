// Package gate implements the trend-gate classifier (C7): the decision tree
// that turns trend.Metrics into a DEFER/IGNORE/MANEUVER recommendation,
// grounded on astragaurd/packages/orbit/trend.py's classify_trend_gate and
// compute_defer_until_utc.
package gate

import (
	"time"

	"github.com/astraguard/astraguard/pkg/trend"
)

// Decision is the closed set of gate outcomes.
type Decision string

const (
	DecisionIgnore   Decision = "IGNORE"
	DecisionDefer    Decision = "DEFER"
	DecisionManeuver Decision = "MANEUVER"
)

// ReasonCode is the closed set of gate reason codes.
type ReasonCode string

const (
	ReasonFarFromTCA      ReasonCode = "FAR_FROM_TCA"
	ReasonBelowThreshold  ReasonCode = "BELOW_THRESHOLD"
	ReasonSpikyNotSustain ReasonCode = "SPIKY_NOT_SUSTAINED"
	ReasonSustainedRisk   ReasonCode = "SUSTAINED_RISK"
)

// Result is the gate classifier's output.
type Result struct {
	Decision      Decision
	ReasonCode    ReasonCode
	Reason        string
	DeferUntilUTC *time.Time
}

// ComputeDeferUntilUTC picks the earlier of (tca - tcaGuardHours) and
// (now + revisitHours), floored at now + 10 minutes so a deferred event is
// never scheduled for immediate re-evaluation.
func ComputeDeferUntilUTC(tca, now time.Time, revisitHours, tcaGuardHours float64) time.Time {
	candidateA := tca.Add(-time.Duration(tcaGuardHours * float64(time.Hour)))
	candidateB := now.Add(time.Duration(revisitHours * float64(time.Hour)))
	deferUntil := candidateA
	if candidateB.Before(deferUntil) {
		deferUntil = candidateB
	}
	minAllowed := now.Add(10 * time.Minute)
	if deferUntil.Before(minAllowed) {
		deferUntil = minAllowed
	}
	return deferUntil
}

// DefaultRevisitHours and DefaultTCAGuardHours are compute_defer_until_utc's
// original defaults.
const (
	DefaultRevisitHours  = 6.0
	DefaultTCAGuardHours = 12.0
)

// Classify applies the four-branch decision tree:
//  1. DEFER/FAR_FROM_TCA   — still far from TCA and below critical override.
//  2. IGNORE/BELOW_THRESHOLD — peak Pc never reached the maneuver threshold.
//  3. DEFER/SPIKY_NOT_SUSTAINED — risk spiked but isn't sustained near peak.
//  4. MANEUVER/SUSTAINED_RISK — risk is sustained or rising near TCA.
func Classify(metrics trend.Metrics, tca, now time.Time, deferHours float64) Result {
	if metrics.TimeToTCAHours > deferHours && metrics.PcPeak < metrics.CriticalOverride {
		d := ComputeDeferUntilUTC(tca, now, DefaultRevisitHours, DefaultTCAGuardHours)
		return Result{
			Decision:      DecisionDefer,
			ReasonCode:    ReasonFarFromTCA,
			Reason:        "Risk is too far from TCA and below critical override; defer for re-evaluation.",
			DeferUntilUTC: &d,
		}
	}

	if metrics.PcPeak < metrics.Threshold {
		return Result{
			Decision:   DecisionIgnore,
			ReasonCode: ReasonBelowThreshold,
			Reason:     "Peak collision probability in local window is below maneuver threshold.",
		}
	}

	if metrics.PcSlope <= 0.0 && metrics.PcStability < 0.3 {
		d := ComputeDeferUntilUTC(tca, now, DefaultRevisitHours, DefaultTCAGuardHours)
		return Result{
			Decision:      DecisionDefer,
			ReasonCode:    ReasonSpikyNotSustain,
			Reason:        "Risk profile is not sustained near peak; defer and re-evaluate.",
			DeferUntilUTC: &d,
		}
	}

	return Result{
		Decision:   DecisionManeuver,
		ReasonCode: ReasonSustainedRisk,
		Reason:     "Risk is sustained/rising near TCA; event is maneuver-eligible.",
	}
}
