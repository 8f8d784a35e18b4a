// Package tca implements the TCA Refiner (C4): coarse-candidate best-by-pair
// scanning and fine-window time-of-closest-approach refinement, grounded on
// astragaurd/packages/orbit/conjunction.py.
package tca

import (
	"math"
	"time"

	"github.com/astraguard/astraguard/pkg/catalog"
	"github.com/astraguard/astraguard/pkg/propagation"
	"github.com/astraguard/astraguard/pkg/sgp4"
	"github.com/astraguard/astraguard/pkg/spatialhash"
	"github.com/astraguard/astraguard/pkg/timeutil"
)

// RefinedEvent is C4's output: an immutable refined conjunction for one
// canonical (i<j) object-index pair.
type RefinedEvent struct {
	I, J                         int
	PrimaryTLE, SecondaryTLE     catalog.TLE
	TCAUTC                       time.Time
	MissDistanceM                float64
	RelativeSpeedMps             float64
	WindowStartUTC, WindowEndUTC time.Time
}

// DefaultRefineHalfWindowSteps is the spec default (w = 2 coarse steps).
const DefaultRefineHalfWindowSteps = 2

type coarseHit struct {
	minDistKm float64
	coarseIdx int
}

// Refine scans the candidate stream once to find each pair's minimum-distance
// coarse timestep, then re-propagates both objects across a fine window
// around that timestep to find the refined TCA. Per-pair SGP4 failure during
// refinement drops that pair (counted in the second return value) rather than failing
// the whole run.
func Refine(grid *propagation.Grid, stream *spatialhash.Stream, dtRefine time.Duration, refineHalfWindowSteps int) ([]RefinedEvent, int) {
	best := make(map[spatialhash.Pair]coarseHit)

	for {
		step, ok := stream.Next()
		if !ok {
			break
		}
		row := grid.PositionsKm[step.TIdx]
		for _, p := range step.Pairs {
			d := distanceKm(row[p.I], row[p.J])
			if hit, exists := best[p]; !exists || d < hit.minDistKm {
				best[p] = coarseHit{minDistKm: d, coarseIdx: step.TIdx}
			}
		}
	}

	events := make([]RefinedEvent, 0, len(best))
	dropped := 0
	lastIdx := len(grid.Times) - 1

	for pair, hit := range best {
		lo := clamp(hit.coarseIdx-refineHalfWindowSteps, 0, lastIdx)
		hi := clamp(hit.coarseIdx+refineHalfWindowSteps, 0, lastIdx)
		windowStart := grid.Times[lo]
		windowEnd := grid.Times[hi]

		fineTimes := timeutil.BuildUniformTimeline(windowStart, windowEnd.Sub(windowStart), dtRefine)

		relPos := make([][3]float64, len(fineTimes))
		ok := true
		for k, t := range fineTimes {
			pi, code1 := propagateAt(grid.Satellites[pair.I], t)
			pj, code2 := propagateAt(grid.Satellites[pair.J], t)
			if code1 != sgp4.ErrNone || code2 != sgp4.ErrNone {
				ok = false
				break
			}
			relPos[k] = sub(pi, pj)
		}
		if !ok {
			dropped++
			continue
		}

		tcaIdx := argminNorm(relPos)
		missKm := norm(relPos[tcaIdx])
		relSpeed := relativeSpeedMps(relPos, tcaIdx, dtRefine.Seconds())

		events = append(events, RefinedEvent{
			I:                pair.I,
			J:                pair.J,
			PrimaryTLE:       grid.KeptTLEs[pair.I],
			SecondaryTLE:     grid.KeptTLEs[pair.J],
			TCAUTC:           fineTimes[tcaIdx],
			MissDistanceM:    missKm * 1000.0,
			RelativeSpeedMps: relSpeed,
			WindowStartUTC:   windowStart,
			WindowEndUTC:     windowEnd,
		})
	}

	return events, dropped
}

func propagateAt(sat *sgp4.Satellite, t time.Time) ([3]float64, sgp4.ErrorCode) {
	tsince := t.Sub(sat.EpochUTC).Minutes()
	state, code := sat.Propagate(tsince)
	return state.PositionKm, code
}

// relativeSpeedMps estimates relative speed at index idx via central
// difference at interior indices, forward/backward difference at
// boundaries, 0 when fewer than two samples exist.
func relativeSpeedMps(relPosKm [][3]float64, idx int, dtS float64) float64 {
	n := len(relPosKm)
	if n < 2 {
		return 0
	}
	switch {
	case idx == 0:
		return norm(sub(relPosKm[1], relPosKm[0])) * 1000.0 / dtS
	case idx == n-1:
		return norm(sub(relPosKm[n-1], relPosKm[n-2])) * 1000.0 / dtS
	default:
		return norm(sub(relPosKm[idx+1], relPosKm[idx-1])) * 1000.0 / (2 * dtS)
	}
}

func distanceKm(a, b [3]float64) float64 { return norm(sub(a, b)) }

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func argminNorm(vs [][3]float64) int {
	best := 0
	bestNorm := math.Inf(1)
	for i, v := range vs {
		n := norm(v)
		if n < bestNorm {
			bestNorm = n
			best = i
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
