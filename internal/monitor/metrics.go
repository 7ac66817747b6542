package monitor

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for one sentinel process.
type Metrics struct {
	Registry *prometheus.Registry

	AnalysesTotal       *prometheus.CounterVec
	Errors              *prometheus.CounterVec
	ThreatScore         prometheus.Histogram
	ObservationDuration prometheus.Histogram
	CleanupFailures     *prometheus.CounterVec
	TargetSizeBytes     prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics using a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sentinel",
				Name:      "analyses_total",
				Help:      "Total number of analyses by verdict status and threat level.",
			},
			[]string{"status", "level"},
		),

		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sentinel",
				Name:      "errors_total",
				Help:      "Total orchestration failures by type.",
			},
			[]string{"type"},
		),

		ThreatScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sentinel",
				Name:      "threat_score",
				Help:      "Distribution of heuristic threat scores.",
				Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),

		ObservationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sentinel",
				Name:      "observation_duration_seconds",
				Help:      "Wall time from VMM spawn until the process was reaped.",
				Buckets:   []float64{0.5, 1, 2, 3, 3.5, 4, 5, 10, 30},
			},
		),

		CleanupFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sentinel",
				Name:      "cleanup_failures_total",
				Help:      "Transient artifacts that could not be removed.",
			},
			[]string{"artifact"},
		),

		TargetSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sentinel",
				Name:      "target_size_bytes",
				Help:      "Size of analyzed files in bytes.",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
			},
		),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.Errors,
		m.ThreatScore,
		m.ObservationDuration,
		m.CleanupFailures,
		m.TargetSizeBytes,
	)

	return m
}

// RecordAnalysis records the final verdict of a run.
func (m *Metrics) RecordAnalysis(status, level string, score int) {
	m.AnalysesTotal.WithLabelValues(status, level).Inc()
	if status == "ANALYZED" {
		m.ThreatScore.Observe(float64(score))
	}
}

// RecordError records an orchestration failure by type.
func (m *Metrics) RecordError(errType string) {
	m.Errors.WithLabelValues(errType).Inc()
}

// RecordCleanupFailure records an artifact left behind after best-effort removal.
func (m *Metrics) RecordCleanupFailure(artifact string) {
	m.CleanupFailures.WithLabelValues(artifact).Inc()
}

// WriteTextfile dumps the registry in the text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
