// Package trend builds the local Pc time series around a refined TCA and
// computes its peak/slope/stability metrics (C6 — Trend Evaluator), grounded
// on astragaurd/packages/orbit/trend.py.
package trend

import (
	"math"
	"time"

	"github.com/astraguard/astraguard/pkg/risk"
	"github.com/astraguard/astraguard/pkg/sgp4"
)

// Config mirrors the Python TrendConfig dataclass's defaults.
type Config struct {
	WindowMinutes    int
	CadenceSeconds   int
	Threshold        float64
	DeferHours       float64
	CriticalOverride float64
	HardBodyRadiusM  float64
	CovModel         risk.CovarianceModel
	SigmaPayloadM    float64
	SigmaDebrisM     float64
	BaseSigma        risk.GroupBaseSigma
}

// DefaultConfig matches the spec/original defaults for an anisotropic-RTN
// covariance model.
func DefaultConfig() Config {
	return Config{
		WindowMinutes:    30,
		CadenceSeconds:   60,
		Threshold:        1e-5,
		DeferHours:       24.0,
		CriticalOverride: 1e-3,
		HardBodyRadiusM:  25.0,
		CovModel:         risk.CovAnisotropic,
		SigmaPayloadM:    200.0,
		SigmaDebrisM:     500.0,
		BaseSigma: risk.GroupBaseSigma{
			PayloadR: 200.0, PayloadT: 260.0, PayloadN: 200.0,
			DebrisR: 500.0, DebrisT: 700.0, DebrisN: 500.0,
			AlongTrackGrowthMPS: 0.02,
		},
	}
}

// PcSample is one point of the local Pc time series.
type PcSample struct {
	TUTC  time.Time
	MissM float64
	Pc    float64
}

// Metrics summarizes a local Pc series for gate classification.
type Metrics struct {
	PcPeak           float64
	PcSlope          float64
	PcStability      float64
	WindowMinutes    int
	CadenceSeconds   int
	SampleCount      int
	TimeToTCAHours   float64
	Threshold        float64
	CriticalOverride float64
}

// BuildSampleTimes returns the symmetric sample-time grid around tca at the
// configured cadence, always including the exact window boundary.
func BuildSampleTimes(tca time.Time, windowMinutes, cadenceSeconds int) []time.Time {
	halfWindowS := windowMinutes
	if halfWindowS < 0 {
		halfWindowS = 0
	}
	halfWindowS *= 60
	cadenceS := cadenceSeconds
	if cadenceS < 1 {
		cadenceS = 1
	}
	if cadenceS > halfWindowS {
		return []time.Time{tca}
	}

	var times []time.Time
	for offset := -halfWindowS; offset <= halfWindowS; offset += cadenceS {
		times = append(times, tca.Add(time.Duration(offset)*time.Second))
	}
	if len(times) == 0 {
		times = []time.Time{tca}
	}
	boundary := tca.Add(time.Duration(halfWindowS) * time.Second)
	if !times[len(times)-1].Equal(boundary) {
		times = append(times, boundary)
	}
	return times
}

// BuildLocalPcSeries propagates both satellites across the sample-time grid
// around tca and evaluates Pc at each sample. Returns nil if either
// satellite fails to propagate at any sample time (the caller then falls
// back to a single-sample series built from the refined event's own miss
// distance and Pc).
func BuildLocalPcSeries(tca time.Time, primary, secondary *sgp4.Satellite, primaryGroup, secondaryGroup string, cfg Config) []PcSample {
	times := BuildSampleTimes(tca, cfg.WindowMinutes, cfg.CadenceSeconds)

	samples := make([]PcSample, len(times))
	for i, t := range times {
		pPos, code1 := propagateKm(primary, t)
		sPos, code2 := propagateKm(secondary, t)
		if code1 != sgp4.ErrNone || code2 != sgp4.ErrNone {
			return nil
		}
		missM := normKm(sub(pPos, sPos)) * 1000.0
		deltaT := t.Sub(tca).Seconds()
		sigma := risk.SigmaPairForTime(cfg.CovModel, primaryGroup, secondaryGroup, deltaT, cfg.SigmaPayloadM, cfg.SigmaDebrisM, cfg.BaseSigma)
		pc := risk.IsotropicPc(missM, sigma, cfg.HardBodyRadiusM, 16)
		samples[i] = PcSample{TUTC: t, MissM: missM, Pc: pc}
	}
	return samples
}

// FallbackSeries builds the single-sample series used when propagation
// across the local window fails: the refined event's own TCA-time miss
// distance and Pc stand in for the whole window.
func FallbackSeries(tca time.Time, missM, pc float64) []PcSample {
	return []PcSample{{TUTC: tca, MissM: missM, Pc: pc}}
}

// ComputeTrendMetrics derives pc_peak/pc_slope/pc_stability plus
// bookkeeping fields from a local Pc series.
func ComputeTrendMetrics(series []PcSample, tca, now time.Time, cfg Config) Metrics {
	const eps = 1e-16

	var pcPeak, pcSlope, pcStability float64
	if len(series) > 0 {
		pcs := make([]float64, len(series))
		for i, s := range series {
			pcs[i] = math.Max(0.0, s.Pc)
			if pcs[i] > pcPeak {
				pcPeak = pcs[i]
			}
		}
		if pcPeak > 0.0 {
			cutoff := 0.5 * pcPeak
			count := 0
			for _, v := range pcs {
				if v >= cutoff {
					count++
				}
			}
			pcStability = float64(count) / float64(len(pcs))
		}

		x := seriesTimeSeconds(series)
		if len(pcs) >= 2 && maxOf(x) > minOf(x) {
			y := make([]float64, len(pcs))
			for i, v := range pcs {
				y[i] = math.Log10(v + eps)
			}
			pcSlope = linearSlope(x, y)
		}
	}

	timeToTCAHours := tca.Sub(now).Hours()

	return Metrics{
		PcPeak:           pcPeak,
		PcSlope:          pcSlope,
		PcStability:      pcStability,
		WindowMinutes:    cfg.WindowMinutes,
		CadenceSeconds:   cfg.CadenceSeconds,
		SampleCount:      len(series),
		TimeToTCAHours:   timeToTCAHours,
		Threshold:        cfg.Threshold,
		CriticalOverride: cfg.CriticalOverride,
	}
}

func seriesTimeSeconds(series []PcSample) []float64 {
	if len(series) == 0 {
		return nil
	}
	t0 := series[0].TUTC
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = s.TUTC.Sub(t0).Seconds()
	}
	return out
}

// linearSlope returns the least-squares slope of y against x (degree-1
// polyfit), the closed-form equivalent of numpy.polyfit(x, y, 1)[0].
func linearSlope(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumXX float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}

func propagateKm(sat *sgp4.Satellite, t time.Time) ([3]float64, sgp4.ErrorCode) {
	tsince := t.Sub(sat.EpochUTC).Minutes()
	state, code := sat.Propagate(tsince)
	return state.PositionKm, code
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func normKm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
