// Package risk implements the assumed-covariance collision-probability (Pc)
// model: isotropic and anisotropic (RTN) sigma combination and the 2D
// Gaussian-over-disk quadrature, grounded on
// astragaurd/packages/orbit/risk.py.
package risk

import "math"

// besselI0 evaluates the modified Bessel function of the first kind, order
// zero, via its convergent power series. No Go stdlib or pack library
// provides this; it is the same numerical primitive the Python original
// imports from scipy.special.i0.
func besselI0(x float64) float64 {
	ax := math.Abs(x)
	sum := 1.0
	term := 1.0
	xq := (ax * ax) / 4.0
	for k := 1; k < 60; k++ {
		term *= xq / (float64(k) * float64(k))
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}

// IsotropicPc integrates the 2D Gaussian over a hard-body disk of radius
// hardBodyRadiusM centered at distance missM, using trapezoidal quadrature
// over max(16, nR) nodes. Non-finite results and results outside [0,1] are
// clamped/zeroed.
func IsotropicPc(missM, sigmaM, hardBodyRadiusM float64, nR int) float64 {
	if sigmaM <= 0 || hardBodyRadiusM <= 0 {
		return 0
	}
	count := nR
	if count < 16 {
		count = 16
	}
	scale := sigmaM * sigmaM
	r := missM

	h := hardBodyRadiusM / float64(count-1)
	integrand := func(rho float64) float64 {
		return (rho / scale) * math.Exp(-(rho*rho+r*r)/(2*scale)) * besselI0(rho*r/scale)
	}

	sum := 0.0
	prev := integrand(0)
	for i := 1; i < count; i++ {
		rho := float64(i) * h
		cur := integrand(rho)
		sum += 0.5 * (prev + cur) * h
		prev = cur
	}

	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}

// ClassifySigmaM returns sigmaDebrisM if group contains "DEBRIS", else
// sigmaPayloadM.
func ClassifySigmaM(group string, sigmaPayloadM, sigmaDebrisM float64) float64 {
	if containsDebris(group) {
		return sigmaDebrisM
	}
	return sigmaPayloadM
}

func containsDebris(group string) bool {
	return containsUpper(group, "DEBRIS")
}

func containsUpper(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if equalUpper(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
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

// SigmaPairM combines two isotropic per-object sigmas in quadrature.
func SigmaPairM(primaryGroup, secondaryGroup string, sigmaPayloadM, sigmaDebrisM float64) float64 {
	s1 := ClassifySigmaM(primaryGroup, sigmaPayloadM, sigmaDebrisM)
	s2 := ClassifySigmaM(secondaryGroup, sigmaPayloadM, sigmaDebrisM)
	return math.Sqrt(s1*s1 + s2*s2)
}

// RTNSigma holds per-axis anisotropic sigma components, in meters.
type RTNSigma struct {
	R, T, N float64
}

// GroupBaseSigma carries the per-group anisotropic base sigma, used by
// SigmaComponentsForGroup.
type GroupBaseSigma struct {
	PayloadR, PayloadT, PayloadN float64
	DebrisR, DebrisT, DebrisN    float64
	AlongTrackGrowthMPS          float64
}

// SigmaComponentsForGroup returns the RTN sigma for a group at time offset
// deltaTSeconds from TCA: the along-track component grows linearly with
// |deltaTSeconds|, R and N stay at their base values. Every component is
// floored at zero.
func SigmaComponentsForGroup(group string, deltaTSeconds float64, cfg GroupBaseSigma) RTNSigma {
	var r, tBase, n float64
	if containsDebris(group) {
		r, tBase, n = cfg.DebrisR, cfg.DebrisT, cfg.DebrisN
	} else {
		r, tBase, n = cfg.PayloadR, cfg.PayloadT, cfg.PayloadN
	}
	t := tBase + cfg.AlongTrackGrowthMPS*math.Abs(deltaTSeconds)
	return RTNSigma{R: floor0(r), T: floor0(t), N: floor0(n)}
}

func floor0(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// SigmaEffectiveFromRTN collapses an anisotropic sigma to a scalar effective
// sigma: sqrt((R^2+T^2+N^2)/3).
func SigmaEffectiveFromRTN(s RTNSigma) float64 {
	return math.Sqrt((s.R*s.R + s.T*s.T + s.N*s.N) / 3.0)
}

// SigmaPairEffectiveM combines two objects' anisotropic-collapsed effective
// sigmas in quadrature, at time offset deltaTSeconds from TCA.
func SigmaPairEffectiveM(primaryGroup, secondaryGroup string, deltaTSeconds float64, cfg GroupBaseSigma) float64 {
	s1 := SigmaEffectiveFromRTN(SigmaComponentsForGroup(primaryGroup, deltaTSeconds, cfg))
	s2 := SigmaEffectiveFromRTN(SigmaComponentsForGroup(secondaryGroup, deltaTSeconds, cfg))
	return math.Sqrt(s1*s1 + s2*s2)
}

// CovarianceModel selects which sigma-combination variant C5/C6 apply.
type CovarianceModel string

const (
	CovLegacy      CovarianceModel = "legacy"
	CovAnisotropic CovarianceModel = "anisotropic_rtn"
)

// SigmaPairForTime dispatches on model: legacy uses the plain isotropic
// SigmaPairM; anisotropic_rtn parameterizes sigma_T by deltaTSeconds from
// TCA via SigmaPairEffectiveM.
func SigmaPairForTime(model CovarianceModel, primaryGroup, secondaryGroup string, deltaTSeconds, sigmaPayloadM, sigmaDebrisM float64, cfg GroupBaseSigma) float64 {
	if model == CovLegacy {
		return SigmaPairM(primaryGroup, secondaryGroup, sigmaPayloadM, sigmaDebrisM)
	}
	return SigmaPairEffectiveM(primaryGroup, secondaryGroup, deltaTSeconds, cfg)
}

// AdmitPairType applies the default pair-type admission policy: a pair is
// rejected only when both groups contain "DEBRIS" (case-insensitively);
// every other pair, including ACTIVE-vs-ACTIVE and ACTIVE-vs-DEBRIS, is
// admitted.
func AdmitPairType(primaryGroup, secondaryGroup string) bool {
	return !containsDebris(primaryGroup) || !containsDebris(secondaryGroup)
}
