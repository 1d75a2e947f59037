package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// PromSink counts events by kind on a dedicated registry and records plan
// latency from KindPlanCompleted events (Value is seconds).
type PromSink struct {
	Registry     *prometheus.Registry
	events       *prometheus.CounterVec
	planDuration prometheus.Histogram
}

func NewPromSink() *PromSink {
	s := &PromSink{
		Registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "wayfarer_core_events_total", Help: "Planner core events by kind."},
			[]string{"kind"},
		),
		planDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "wayfarer_plan_duration_seconds", Help: "End-to-end itinerary planning time.", Buckets: []float64{.005, .01, .05, .1, .5, 1, 2, 5, 10}},
		),
	}
	s.Registry.MustRegister(s.events, s.planDuration)
	s.Registry.MustRegister(collectors.NewGoCollector())
	return s
}

func (s *PromSink) Emit(ev Event) {
	s.events.WithLabelValues(string(ev.Kind)).Inc()
	if ev.Kind == KindPlanCompleted {
		s.planDuration.Observe(ev.Value)
	}
}

// EventCount exposes the counter for one kind, for tests.
func (s *PromSink) EventCount(kind Kind) prometheus.Counter {
	return s.events.WithLabelValues(string(kind))
}
