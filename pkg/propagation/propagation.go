// Package propagation builds a uniform propagation timeline and produces the
// per-object position grid (C2), grounded on
// astragaurd/packages/orbit/propagate.py.
package propagation

import (
	"time"

	"github.com/astraguard/astraguard/pkg/catalog"
	"github.com/astraguard/astraguard/pkg/errkind"
	"github.com/astraguard/astraguard/pkg/sgp4"
	"github.com/astraguard/astraguard/pkg/timeutil"
)

// Grid is the positions[T,N,3] output of C2: PositionsKm[t][n] is the
// position of object n at time Times[t], kilometers, TEME-native frame.
type Grid struct {
	Times       []time.Time
	PositionsKm [][][3]float64
	NoradIDs    []uint32
	KeptTLEs    []catalog.TLE
	Satellites  []*sgp4.Satellite

	DroppedCount int
}

// Run propagates every TLE across the uniform timeline [start, start+horizon]
// at step dt, dropping any object whose SGP4 init or any propagation call
// fails or returns a non-finite position. Index ordering of kept objects
// matches the order TLEs were given in, with failing entries removed.
func Run(tles []catalog.TLE, start time.Time, horizon, dt time.Duration) (*Grid, error) {
	if dt <= 0 {
		return nil, errkind.New(errkind.SGP4PropError, errNonPositiveStep())
	}
	times := timeutil.BuildUniformTimeline(start, horizon, dt)

	grid := &Grid{Times: times}
	perObject := make([][][3]float64, 0, len(tles))

	for _, tle := range tles {
		sat, err := sgp4.ParseTLE(tle.Name, tle.Line1, tle.Line2)
		if err != nil {
			grid.DroppedCount++
			continue
		}
		if code := sat.Init(); code != sgp4.ErrNone {
			grid.DroppedCount++
			continue
		}

		positions := make([][3]float64, len(times))
		ok := true
		for i, t := range times {
			tsince := t.Sub(sat.EpochUTC).Minutes()
			state, code := sat.Propagate(tsince)
			if code != sgp4.ErrNone || !finite3(state.PositionKm) {
				ok = false
				break
			}
			positions[i] = state.PositionKm
		}
		if !ok {
			grid.DroppedCount++
			continue
		}

		perObject = append(perObject, positions)
		grid.NoradIDs = append(grid.NoradIDs, tle.NoradID)
		grid.KeptTLEs = append(grid.KeptTLEs, tle)
		grid.Satellites = append(grid.Satellites, sat)
	}

	if len(perObject) == 0 {
		return grid, errkind.New(errkind.SGP4PropError, errZeroRetained())
	}

	// Transpose to [T][N][3] for C3's per-timestep locality.
	n := len(perObject)
	tcount := len(times)
	grid.PositionsKm = make([][][3]float64, tcount)
	for t := 0; t < tcount; t++ {
		row := make([][3]float64, n)
		for obj := 0; obj < n; obj++ {
			row[obj] = perObject[obj][t]
		}
		grid.PositionsKm[t] = row
	}

	return grid, nil
}

func finite3(v [3]float64) bool {
	for _, x := range v {
		if x != x || x > 1e12 || x < -1e12 {
			return false
		}
	}
	return true
}

func errNonPositiveStep() error { return errString("propagation: dt_s must be > 0") }
func errZeroRetained() error    { return errString("propagation: zero objects retained after propagation") }

type errString string

func (e errString) Error() string { return string(e) }
