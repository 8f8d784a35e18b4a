package maneuver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanMinDeltaVSelectsMinimumFeasibleCandidate(t *testing.T) {
	tca, _ := time.Parse(time.RFC3339, "2026-02-23T12:00:00Z")
	now := tca.Add(-48 * time.Hour)
	policy := Policy{
		MissDistanceTargetM: 1000.0,
		MaxDeltaVMps:        0.5,
		CandidateOffsetsH:   []float64{24.0, 12.0, 6.0, 2.0},
		LateBurnMinutes:     30.0,
	}

	plan := PlanMinDeltaV(tca, 200.0, policy, now)
	require.Equal(t, "feasible", plan.Feasibility)
	require.NotNil(t, plan.Direction)
	assert.Equal(t, DirPlusT, *plan.Direction)
	require.NotNil(t, plan.DeltaVMps)
	assert.InDelta(t, 800.0/(24.0*3600.0), *plan.DeltaVMps, 1e-6)
}

func TestPlanMinDeltaVMarksInfeasibleWhenCapTooLow(t *testing.T) {
	tca, _ := time.Parse(time.RFC3339, "2026-02-23T12:00:00Z")
	now := tca.Add(-4 * time.Hour)
	policy := Policy{
		MissDistanceTargetM: 5000.0,
		MaxDeltaVMps:        1e-4,
		CandidateOffsetsH:   []float64{2.0},
		LateBurnMinutes:     30.0,
	}

	plan := PlanMinDeltaV(tca, 10.0, policy, now)
	assert.Equal(t, "infeasible", plan.Feasibility)
	assert.Nil(t, plan.DeltaVMps)
	assert.Nil(t, plan.BurnTimeUTC)
	assert.Nil(t, plan.Direction)
}

func TestPlanMinDeltaVGapAlreadyClosedIsZeroCost(t *testing.T) {
	tca, _ := time.Parse(time.RFC3339, "2026-02-23T12:00:00Z")
	now := tca.Add(-48 * time.Hour)
	policy := DefaultPolicy(100.0) // target below current miss: gap is zero

	plan := PlanMinDeltaV(tca, 500.0, policy, now)
	require.Equal(t, "feasible", plan.Feasibility)
	require.NotNil(t, plan.DeltaVMps)
	assert.Equal(t, 0.0, *plan.DeltaVMps)
}

func TestRequiredDeltaVNilWhenLeadTimeNonPositive(t *testing.T) {
	assert.Nil(t, requiredDeltaV(100.0, 0.0, 1.0))
	assert.Nil(t, requiredDeltaV(100.0, -10.0, 1.0))
}

func TestRequiredDeltaVNilWhenGainNonPositive(t *testing.T) {
	assert.Nil(t, requiredDeltaV(100.0, 3600.0, 0.0))
}

func TestLateBaselineAlwaysPopulated(t *testing.T) {
	tca, _ := time.Parse(time.RFC3339, "2026-02-23T12:00:00Z")
	now := tca.Add(-48 * time.Hour)
	policy := DefaultPolicy(1000.0)

	plan := PlanMinDeltaV(tca, 200.0, policy, now)
	assert.Equal(t, tca.Add(-30*time.Minute), plan.LateBaseline.BurnTimeUTC)
	assert.Equal(t, DirPlusT, plan.LateBaseline.Direction)
}
