// Package metrics exposes evaluation and fetch counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink is what the collector, scheduler and API report into.
type Sink interface {
	RecordEvaluation(outcome string)
	RecordAction(action string)
	RecordError(kind string)
	RecordLatency(op string, d time.Duration)
}

// Recorder implements Sink using Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	actions     *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// serve them from promhttp.Handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundsentinel_evaluations_total",
				Help: "Fund evaluations by outcome",
			},
			[]string{"outcome"},
		),
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundsentinel_actions_total",
				Help: "Final recommended actions",
			},
			[]string{"action"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundsentinel_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundsentinel_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordEvaluation(outcome string) {
	r.evaluations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordAction(action string) {
	r.actions.WithLabelValues(action).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordEvaluation(string)             {}
func (Noop) RecordAction(string)                 {}
func (Noop) RecordError(string)                  {}
func (Noop) RecordLatency(string, time.Duration) {}
