// Package maneuver implements the minimal delta-v planner (C8): a
// timing x RTN-direction grid search over candidate burns, grounded on
// astragaurd/packages/orbit/maneuver.py.
package maneuver

import (
	"sort"
	"time"
)

// Policy mirrors the Python ManeuverPolicy dataclass's defaults.
type Policy struct {
	MissDistanceTargetM float64
	MaxDeltaVMps        float64
	CandidateOffsetsH   []float64
	LateBurnMinutes     float64
}

// DefaultPolicy fills in the original's post-init defaults for a given
// miss-distance target.
func DefaultPolicy(missDistanceTargetM float64) Policy {
	return Policy{
		MissDistanceTargetM: missDistanceTargetM,
		MaxDeltaVMps:        0.5,
		CandidateOffsetsH:   []float64{24.0, 12.0, 6.0, 2.0},
		LateBurnMinutes:     30.0,
	}
}

// Direction is an RTN burn direction.
type Direction string

const (
	DirPlusT  Direction = "+T"
	DirMinusT Direction = "-T"
	DirPlusR  Direction = "+R"
	DirMinusR Direction = "-R"
	DirPlusN  Direction = "+N"
	DirMinusN Direction = "-N"
)

// directionGains is the fixed per-direction control-authority gain: along-
// track burns are fully effective, radial/normal burns are attenuated.
func directionGains() map[Direction]float64 {
	return map[Direction]float64{
		DirPlusT:  1.0,
		DirMinusT: 1.0,
		DirPlusR:  0.3,
		DirMinusR: 0.3,
		DirPlusN:  0.3,
		DirMinusN: 0.3,
	}
}

var directionOrder = []Direction{DirPlusT, DirMinusT, DirPlusR, DirMinusR, DirPlusN, DirMinusN}

// Candidate is one timing x direction grid point.
type Candidate struct {
	BurnTimeUTC   time.Time
	Frame         string
	Direction     Direction
	DeltaVMps     float64
	ExpectedMissM float64
	Feasible      bool
	LeadTimeS     float64
	Gain          float64
}

// LateBaseline is the always-feasible-timing reference burn used to compute
// early_vs_late_ratio.
type LateBaseline struct {
	BurnTimeUTC time.Time
	Direction   Direction
	DeltaVMps   float64
}

// Plan is the maneuver planner's output for one conjunction event.
type Plan struct {
	BurnTimeUTC      *time.Time
	Frame            string
	Direction        *Direction
	DeltaVMps        *float64
	ExpectedMissM    float64
	Feasibility      string // "feasible" or "infeasible"
	EarlyVsLateRatio *float64
	Notes            string
	CurrentMissM     float64
	TargetMissM      float64
	LateBaseline     LateBaseline
}

// requiredDeltaV returns nil when lead time or gain is non-positive (no burn
// geometry can close the gap); 0 when the gap is already closed.
func requiredDeltaV(gapM, leadTimeS, gain float64) *float64 {
	if leadTimeS <= 0.0 || gain <= 0.0 {
		return nil
	}
	if gapM <= 0.0 {
		v := 0.0
		return &v
	}
	v := gapM / (leadTimeS * gain)
	return &v
}

func expectedMiss(currentMissM, deltaVMps, leadTimeS, gain float64) float64 {
	deltaM := deltaVMps * leadTimeS * gain
	if deltaM < 0 {
		deltaM = 0
	}
	return currentMissM + deltaM
}

// PlanMinDeltaV runs the timing x direction grid search and selects the minimal
// feasible delta-v candidate, or reports infeasibility with a late-baseline
// reference burn.
func PlanMinDeltaV(tca time.Time, currentMissM float64, policy Policy, now time.Time) Plan {
	targetM := policy.MissDistanceTargetM
	if targetM < 0 {
		targetM = 0
	}
	gapM := targetM - currentMissM
	if gapM < 0 {
		gapM = 0
	}
	maxDeltaV := policy.MaxDeltaVMps
	if maxDeltaV < 0 {
		maxDeltaV = 0
	}

	offsets := append([]float64(nil), policy.CandidateOffsetsH...)
	sort.Float64s(offsets)

	gains := directionGains()
	var candidates []Candidate
	for _, offsetH := range offsets {
		burnTime := tca.Add(-time.Duration(offsetH * float64(time.Hour)))
		leadTimeS := tca.Sub(burnTime).Seconds()
		for _, dir := range directionOrder {
			gain := gains[dir]
			deltaVReq := requiredDeltaV(gapM, leadTimeS, gain)
			feasible := deltaVReq != nil && *deltaVReq <= maxDeltaV

			deltaV := maxDeltaV + 1.0
			usedForMiss := 0.0
			if deltaVReq != nil {
				deltaV = *deltaVReq
				usedForMiss = *deltaVReq
			}

			candidates = append(candidates, Candidate{
				BurnTimeUTC:   burnTime,
				Frame:         "RTN",
				Direction:     dir,
				DeltaVMps:     deltaV,
				ExpectedMissM: expectedMiss(currentMissM, usedForMiss, leadTimeS, gain),
				Feasible:      feasible,
				LeadTimeS:     leadTimeS,
				Gain:          gain,
			})
		}
	}

	var feasible []Candidate
	for _, c := range candidates {
		if c.Feasible {
			feasible = append(feasible, c)
		}
	}
	sort.SliceStable(feasible, func(i, j int) bool {
		a, b := feasible[i], feasible[j]
		if a.DeltaVMps != b.DeltaVMps {
			return a.DeltaVMps < b.DeltaVMps
		}
		if a.LeadTimeS != b.LeadTimeS {
			return a.LeadTimeS < b.LeadTimeS
		}
		return a.Direction < b.Direction
	})

	lateBurnTime := tca.Add(-time.Duration(policy.LateBurnMinutes * float64(time.Minute)))
	lateLeadS := tca.Sub(lateBurnTime).Seconds()
	lateDeltaVReq := requiredDeltaV(gapM, lateLeadS, 1.0)
	lateDeltaV := maxDeltaV + 1.0
	if lateDeltaVReq != nil {
		lateDeltaV = *lateDeltaVReq
	}
	lateBaseline := LateBaseline{
		BurnTimeUTC: lateBurnTime,
		Direction:   DirPlusT,
		DeltaVMps:   lateDeltaV,
	}

	if len(feasible) > 0 {
		selected := feasible[0]
		var ratio *float64
		if lateDeltaVReq != nil && *lateDeltaVReq > 0.0 {
			r := selected.DeltaVMps / *lateDeltaVReq
			ratio = &r
		}
		burnTime := selected.BurnTimeUTC
		dir := selected.Direction
		deltaV := selected.DeltaVMps
		return Plan{
			BurnTimeUTC:      &burnTime,
			Frame:            "RTN",
			Direction:        &dir,
			DeltaVMps:        &deltaV,
			ExpectedMissM:    selected.ExpectedMissM,
			Feasibility:      "feasible",
			EarlyVsLateRatio: ratio,
			Notes:            "Selected minimal feasible delta-v candidate across timing and RTN direction grid.",
			CurrentMissM:     currentMissM,
			TargetMissM:      targetM,
			LateBaseline:     lateBaseline,
		}
	}

	return Plan{
		BurnTimeUTC:   nil,
		Frame:         "RTN",
		Direction:     nil,
		DeltaVMps:     nil,
		ExpectedMissM: currentMissM,
		Feasibility:   "infeasible",
		Notes:         "No feasible candidate met delta-v cap; event remains maneuver-eligible but operationally deferred.",
		CurrentMissM:  currentMissM,
		TargetMissM:   targetM,
		LateBaseline:  lateBaseline,
	}
}
