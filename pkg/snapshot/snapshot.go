// Package snapshot builds the per-run ECEF downsampled visualization
// snapshot (C9's numerical half), grounded on
// astragaurd/scripts/run_screening.py's `_eci_to_ecef_snapshot`,
// `_gmst_rad`, `_datetime_to_julian`, and `_write_cesium_snapshot`.
package snapshot

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/astraguard/astraguard/pkg/contracts"
	"github.com/astraguard/astraguard/pkg/propagation"
	"github.com/astraguard/astraguard/pkg/timeutil"
)

// SelectionOptions configures balanced object sampling.
type SelectionOptions struct {
	Balanced         bool
	ActiveTarget     int
	DebrisTarget     int
	MaxObjects       int
	RequiredNoradIDs map[uint32]bool
	Seed             int64
}

// SelectIndices picks which object indices from grid go into the snapshot.
// When Balanced is false, every object is included (subject to MaxObjects).
// When Balanced is true, it guarantees every required norad_id is included,
// then fills the remaining budget from the optional pool targeting
// ActiveTarget ACTIVE objects and DebrisTarget non-ACTIVE objects, trimming
// any excess from the optional pool only. If the required set alone exceeds
// MaxObjects, the cap is expanded to fit it and a warning is returned.
func SelectIndices(grid *propagation.Grid, opts SelectionOptions) (indices []int, warning string) {
	n := len(grid.KeptTLEs)
	if !opts.Balanced {
		budget := opts.MaxObjects
		if budget <= 0 || budget > n {
			budget = n
		}
		out := make([]int, budget)
		for i := range out {
			out[i] = i
		}
		return out, ""
	}

	var required, optionalActive, optionalNonActive []int
	for i, tle := range grid.KeptTLEs {
		if opts.RequiredNoradIDs[tle.NoradID] {
			required = append(required, i)
			continue
		}
		if isActiveGroup(tle.SourceGroup) {
			optionalActive = append(optionalActive, i)
		} else {
			optionalNonActive = append(optionalNonActive, i)
		}
	}

	budget := opts.MaxObjects
	if len(required) > budget {
		warning = "required norad_id set exceeds snapshot_max; expanding cap to fit all required objects"
		budget = len(required)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(optionalActive), func(i, j int) { optionalActive[i], optionalActive[j] = optionalActive[j], optionalActive[i] })
	rng.Shuffle(len(optionalNonActive), func(i, j int) { optionalNonActive[i], optionalNonActive[j] = optionalNonActive[j], optionalNonActive[i] })

	requiredActiveCount, requiredNonActiveCount := 0, 0
	for _, i := range required {
		if isActiveGroup(grid.KeptTLEs[i].SourceGroup) {
			requiredActiveCount++
		} else {
			requiredNonActiveCount++
		}
	}

	wantActive := maxInt(0, opts.ActiveTarget-requiredActiveCount)
	wantNonActive := maxInt(0, opts.DebrisTarget-requiredNonActiveCount)

	remaining := budget - len(required)
	if remaining < 0 {
		remaining = 0
	}
	if wantActive > remaining {
		wantActive = remaining
	}
	remaining -= wantActive
	if wantNonActive > remaining {
		wantNonActive = remaining
	}

	out := append([]int(nil), required...)
	out = append(out, optionalActive[:minInt(wantActive, len(optionalActive))]...)
	out = append(out, optionalNonActive[:minInt(wantNonActive, len(optionalNonActive))]...)
	sort.Ints(out)
	return out, warning
}

func isActiveGroup(group string) bool {
	return equalUpper(group, "ACTIVE")
}

func equalUpper(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// rotateECIToECEF applies the GMST z-rotation, the same visualization-grade
// approximation as the original's `_eci_to_ecef_snapshot` (no polar motion
// or nutation).
func rotateECIToECEF(posKm [3]float64, t time.Time) [3]float64 {
	theta := timeutil.GMSTRadians(t)
	c, s := math.Cos(theta), math.Sin(theta)
	x, y, z := posKm[0], posKm[1], posKm[2]
	return [3]float64{c*x + s*y, -s*x + c*y, z}
}

func round3(v float64) float64 {
	return math.Round(v*1000.0) / 1000.0
}

// Build downsamples grid's timeline by step, rotates every kept object's
// position into ECEF at each downsampled sample, converts km to m, and
// rounds to 3 decimals per spec §4.9.
func Build(grid *propagation.Grid, indices []int, downsampleStep int, nativeDtS float64, generatedAtUTC time.Time) contracts.CesiumSnapshot {
	if downsampleStep < 1 {
		downsampleStep = 1
	}

	var dsTimes []time.Time
	var dsTimeIdx []int
	for i := 0; i < len(grid.Times); i += downsampleStep {
		dsTimes = append(dsTimes, grid.Times[i])
		dsTimeIdx = append(dsTimeIdx, i)
	}

	objects := make([]contracts.CesiumObject, len(indices))
	for oi, objIdx := range indices {
		positions := make([][3]float64, len(dsTimeIdx))
		for k, tIdx := range dsTimeIdx {
			ecef := rotateECIToECEF(grid.PositionsKm[tIdx][objIdx], dsTimes[k])
			positions[k] = [3]float64{
				round3(ecef[0] * 1000.0),
				round3(ecef[1] * 1000.0),
				round3(ecef[2] * 1000.0),
			}
		}
		tle := grid.KeptTLEs[objIdx]
		objects[oi] = contracts.CesiumObject{
			ObjectIndex:    objIdx,
			NoradID:        tle.NoradID,
			Name:           tle.Name,
			SourceGroup:    tle.SourceGroup,
			PositionsECEFM: positions,
		}
	}

	timesUTC := make([]string, len(dsTimes))
	for i, t := range dsTimes {
		timesUTC[i] = timeutil.FormatISO(t)
	}

	return contracts.CesiumSnapshot{
		SchemaVersion:  contracts.SchemaVersion,
		ArtifactType:   "cesium_snapshot",
		Frame:          "ECEF",
		Units:          "meters",
		ModelVersion:   contracts.ModelVersion,
		GeneratedAtUTC: timeutil.FormatISO(generatedAtUTC),
		TimesUTC:       timesUTC,
		Meta: contracts.CesiumSnapshotMeta{
			NativeDtS:      nativeDtS,
			ExportDtS:      nativeDtS * float64(downsampleStep),
			DownsampleStep: downsampleStep,
		},
		Notes:   "Approximate ECI->ECEF using GMST z-rotation for visualization.",
		Objects: objects,
	}
}

// NearestTimeIndex returns the index into snapshot's times_utc nearest to
// tca, used to populate tca_index_snapshot.
func NearestTimeIndex(timesUTC []string, tca time.Time) int {
	best := -1
	bestDelta := math.Inf(1)
	for i, s := range timesUTC {
		t, err := timeutil.ParseISO(s)
		if err != nil {
			continue
		}
		delta := math.Abs(t.Sub(tca).Seconds())
		if delta < bestDelta {
			bestDelta = delta
			best = i
		}
	}
	return best
}

// LinkageCheck drops any event whose primary/secondary norad_id is absent
// from the snapshot, or whose nearest-time index falls outside the
// snapshot's timeline, and fills in TCAIndexSnapshot for surviving events.
func LinkageCheck(events []contracts.ConjunctionEvent, snap contracts.CesiumSnapshot) (kept []contracts.ConjunctionEvent, dropped int) {
	present := make(map[uint32]bool, len(snap.Objects))
	for _, o := range snap.Objects {
		present[o.NoradID] = true
	}

	for _, ev := range events {
		if !present[ev.PrimaryID] || !present[ev.SecondaryID] {
			dropped++
			continue
		}
		tca, err := timeutil.ParseISO(ev.TCAUTC)
		if err != nil {
			dropped++
			continue
		}
		idx := NearestTimeIndex(snap.TimesUTC, tca)
		if idx < 0 || idx >= len(snap.TimesUTC) {
			dropped++
			continue
		}
		ev.TCAIndexSnapshot = idx
		kept = append(kept, ev)
	}
	return kept, dropped
}
