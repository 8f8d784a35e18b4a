package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsotropicPcScenarioA(t *testing.T) {
	// Scenario A: miss=0, sigma=100, HBR=25 => pc ~= 1-exp(-R^2/(2 sigma^2)).
	pc := IsotropicPc(0, 100, 25, 400)
	expected := 1 - math.Exp(-(25.0*25.0)/(2*100.0*100.0))
	assert.InDelta(t, expected, pc, 1e-4)
	assert.InDelta(t, 0.03077, pc, 1e-4)
}

func TestIsotropicPcZeroRadiusOrSigma(t *testing.T) {
	assert.Equal(t, 0.0, IsotropicPc(0, 0, 25, 400))
	assert.Equal(t, 0.0, IsotropicPc(0, 100, 0, 400))
}

func TestIsotropicPcMonotoneDecreasingInMiss(t *testing.T) {
	pcNear := IsotropicPc(0, 200, 25, 400)
	pcFar := IsotropicPc(5000, 200, 25, 400)
	assert.GreaterOrEqual(t, pcNear, pcFar)
}

func TestIsotropicPcClampedToUnitInterval(t *testing.T) {
	for _, miss := range []float64{0, 10, 1000, 1e9} {
		pc := IsotropicPc(miss, 50, 25, 400)
		assert.GreaterOrEqual(t, pc, 0.0)
		assert.LessOrEqual(t, pc, 1.0)
	}
}

func TestClassifySigmaMDebrisVsPayload(t *testing.T) {
	assert.Equal(t, 500.0, ClassifySigmaM("COSMOS-1408-DEBRIS", 200, 500))
	assert.Equal(t, 200.0, ClassifySigmaM("ACTIVE", 200, 500))
	assert.Equal(t, 200.0, ClassifySigmaM("active", 200, 500))
}

func TestSigmaPairMQuadratureSum(t *testing.T) {
	got := SigmaPairM("ACTIVE", "ACTIVE", 200, 500)
	assert.InDelta(t, math.Sqrt(200*200+200*200), got, 1e-9)
}

func TestAdmitPairTypeDefaultPolicy(t *testing.T) {
	assert.True(t, AdmitPairType("ACTIVE", "ACTIVE"))
	assert.True(t, AdmitPairType("ACTIVE", "COSMOS-1408-DEBRIS"))
	assert.False(t, AdmitPairType("COSMOS-1408-DEBRIS", "IRIDIUM-33-DEBRIS"))
}

func TestSigmaComponentsGrowAlongTrack(t *testing.T) {
	cfg := GroupBaseSigma{
		PayloadR: 200, PayloadT: 260, PayloadN: 200,
		DebrisR: 500, DebrisT: 700, DebrisN: 500,
		AlongTrackGrowthMPS: 0.02,
	}
	near := SigmaComponentsForGroup("ACTIVE", 0, cfg)
	far := SigmaComponentsForGroup("ACTIVE", 3600, cfg)
	assert.Equal(t, 260.0, near.T)
	assert.InDelta(t, 260+0.02*3600, far.T, 1e-9)
	assert.Equal(t, near.R, far.R)
}
