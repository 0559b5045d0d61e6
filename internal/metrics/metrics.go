// Package metrics provides Prometheus instrumentation for trip planning.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeInvalid  = "invalid"
	OutcomeFallback = "fallback"
	OutcomeRejected = "rejected"
)

// Metrics holds the domain collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	generations    *prometheus.CounterVec
	validations    *prometheus.CounterVec
	swaps          *prometheus.CounterVec
	images         *prometheus.CounterVec
	snapshotWrites *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	modelTokens    *prometheus.CounterVec
}

// New creates the collectors, registered alongside Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripweaver_plan_generations_total",
				Help: "Itinerary generations by outcome",
			},
			[]string{"outcome"},
		),
		validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripweaver_destination_validations_total",
				Help: "Destination validations by outcome",
			},
			[]string{"outcome"},
		),
		swaps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripweaver_activity_swaps_total",
				Help: "Activity swaps by outcome",
			},
			[]string{"outcome"},
		),
		images: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripweaver_activity_images_total",
				Help: "Activity image requests by outcome",
			},
			[]string{"outcome"},
		),
		snapshotWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripweaver_snapshot_writes_total",
				Help: "Snapshot writes by outcome",
			},
			[]string{"outcome"},
		),
		modelLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tripweaver_model_request_duration_seconds",
				Help:    "Model request duration by operation",
				Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"operation", "status"},
		),
		modelTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tripweaver_model_tokens_total",
				Help: "Model tokens processed",
			},
			[]string{"operation", "direction"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordGeneration counts an itinerary generation.
func (m *Metrics) RecordGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

// RecordValidation counts a destination validation.
func (m *Metrics) RecordValidation(outcome string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// RecordSwap counts an activity swap.
func (m *Metrics) RecordSwap(outcome string) {
	if m == nil {
		return
	}
	m.swaps.WithLabelValues(outcome).Inc()
}

// RecordImages counts settled image requests.
func (m *Metrics) RecordImages(succeeded, failed int) {
	if m == nil {
		return
	}
	m.images.WithLabelValues(OutcomeSuccess).Add(float64(succeeded))
	m.images.WithLabelValues(OutcomeFailure).Add(float64(failed))
}

// RecordSnapshotWrite counts a snapshot write.
func (m *Metrics) RecordSnapshotWrite(outcome string) {
	if m == nil {
		return
	}
	m.snapshotWrites.WithLabelValues(outcome).Inc()
}

// RecordModelCall records a model request.
func (m *Metrics) RecordModelCall(operation, status string, seconds float64, tokensIn, tokensOut int) {
	if m == nil {
		return
	}
	m.modelLatency.WithLabelValues(operation, status).Observe(seconds)
	m.modelTokens.WithLabelValues(operation, "in").Add(float64(tokensIn))
	m.modelTokens.WithLabelValues(operation, "out").Add(float64(tokensOut))
}
