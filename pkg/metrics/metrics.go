// Package metrics exposes a private prometheus registry for the screening
// pipeline's own stage-duration and drop-count instruments, grounded on
// jhkimqd-chaos-utils's pkg/monitoring/prometheus/client.go (the exposition
// side of the same prometheus/client_golang module) and the counter/
// histogram registration style in the vsa tfd-sim example.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every instrument the pipeline reports against, registered
// on a private registry so a run never collides with an ambient default
// registerer.
type Registry struct {
	reg *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	ObjectsDropped *prometheus.CounterVec
	EventsFound    prometheus.Counter
	EventsScored   prometheus.Counter
	PairsDropped   *prometheus.CounterVec
}

// New builds and registers every instrument.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "astraguard_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		ObjectsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "astraguard_objects_dropped_total",
			Help: "Objects dropped during propagation, by reason.",
		}, []string{"reason"}),
		EventsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astraguard_events_found_total",
			Help: "Refined conjunction events produced by the TCA refiner.",
		}),
		EventsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "astraguard_events_scored_total",
			Help: "Events that survived pair-type admission and were scored.",
		}),
		PairsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "astraguard_pairs_dropped_total",
			Help: "Candidate pairs dropped during refinement, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(r.StageDuration, r.ObjectsDropped, r.EventsFound, r.EventsScored, r.PairsDropped)
	return r
}

// Gatherer exposes the private registry for an HTTP /metrics handler
// (promhttp.HandlerFor(r.Gatherer(), ...)).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Snapshot renders the counter/gauge values into a flat map suitable for
// inclusion in a single structured log line at the end of a run.
func (r *Registry) Snapshot() map[string]float64 {
	out := make(map[string]float64)

	families, err := r.reg.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "." + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key+".sum"] = m.GetHistogram().GetSampleSum()
				out[key+".count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}
