// Package metrics exposes Prometheus collectors for the describe pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal counts pipeline runs by result: success, failed or abandoned
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "echovision",
		Subsystem: "pipeline",
		Name:      "requests_total",
		Help:      "Total number of describe requests, labeled by result.",
	}, []string{"result"})

	// StageOutcomesTotal counts stage results: ok, degraded or failed
	StageOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "echovision",
		Subsystem: "pipeline",
		Name:      "stage_outcomes_total",
		Help:      "Total number of stage executions, labeled by stage and outcome.",
	}, []string{"stage", "outcome"})

	// StageDurationSeconds is the wall time spent in each stage
	StageDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "echovision",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"stage"})

	// InFlight is 1 while a request holds the pipeline
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "echovision",
		Subsystem: "pipeline",
		Name:      "in_flight",
		Help:      "Whether a describe request is currently running.",
	})
)

// Register registers the collectors with the default registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			StageOutcomesTotal,
			StageDurationSeconds,
			InFlight,
		)
	})
}

// ObserveStage records one stage execution
func ObserveStage(stage, outcome string, started time.Time) {
	StageOutcomesTotal.WithLabelValues(stage, outcome).Inc()
	StageDurationSeconds.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}
