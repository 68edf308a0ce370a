// Package metrics provides Prometheus metrics for the recomodel lifecycle CLI.
//
// A command runs for the lifetime of one process, so nothing is scraped.
// Callers that want the numbers export them with WriteTextfile at exit and
// let the node_exporter textfile collector pick them up.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision labels used by RecordDecision.
const (
	DecisionReuse  = "reuse"
	DecisionTrain  = "train"
	DecisionReject = "reject"
)

// Manager manages all Prometheus metrics for the lifecycle controller.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Aggregation
	aggregatedRecords prometheus.Gauge
	skippedRecords    prometheus.Counter
	aggregationRuns   prometheus.Counter

	// Lifecycle
	decisions        *prometheus.CounterVec
	fitDuration      prometheus.Histogram
	fitFailures      prometheus.Counter
	corruptArtifacts prometheus.Counter
	modelActors      prometheus.Gauge
	modelItems       prometheus.Gauge

	// Interaction source
	sourceFallbacks *prometheus.CounterVec

	// Command surface
	commands *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "recomodel",
		subsystem:        "lifecycle",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.aggregatedRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "aggregated_records",
		Help:        "Distinct actor/item ratings produced by the last aggregation pass",
		ConstLabels: labels,
	})

	m.skippedRecords = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "skipped_interactions_total",
		Help:        "Raw interactions dropped because they were malformed",
		ConstLabels: labels,
	})

	m.aggregationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "aggregation_runs_total",
		Help:        "Number of aggregation passes over the interaction source",
		ConstLabels: labels,
	})

	m.decisions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "decisions_total",
			Help:        "Lifecycle decisions by outcome (reuse, train, reject)",
			ConstLabels: labels,
		},
		[]string{"decision"},
	)

	m.fitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fit_duration_milliseconds",
		Help:        "Time spent fitting and persisting the model",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.fitFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fit_failures_total",
		Help:        "Fit or persist attempts that failed",
		ConstLabels: labels,
	})

	m.corruptArtifacts = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "corrupt_artifacts_total",
		Help:        "Persisted models that could not be restored",
		ConstLabels: labels,
	})

	m.modelActors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_actor_count",
		Help:        "Actor dimension of the model in use",
		ConstLabels: labels,
	})

	m.modelItems = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_item_count",
		Help:        "Item dimension of the model in use",
		ConstLabels: labels,
	})

	m.sourceFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "source_fallbacks_total",
			Help:        "Dimension counts replaced by fallback constants",
			ConstLabels: labels,
		},
		[]string{"dimension"},
	)

	m.commands = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "commands_total",
			Help:        "Commands executed by outcome",
			ConstLabels: labels,
		},
		[]string{"command", "outcome"},
	)
}

// RecordAggregation records the outcome of one aggregation pass.
func RecordAggregation(records, skipped int) {
	globalManager.aggregationRuns.Inc()
	globalManager.aggregatedRecords.Set(float64(records))
	globalManager.skippedRecords.Add(float64(skipped))
}

// RecordDecision increments the decision counter (reuse, train, reject).
func RecordDecision(decision string) {
	globalManager.decisions.WithLabelValues(decision).Inc()
}

// RecordFitDuration records fit+persist latency in milliseconds.
func RecordFitDuration(latencyMs float64) {
	globalManager.fitDuration.Observe(latencyMs)
}

// RecordFitFailure increments the fit failure counter.
func RecordFitFailure() {
	globalManager.fitFailures.Inc()
}

// RecordCorruptArtifact increments the unreadable artifact counter.
func RecordCorruptArtifact() {
	globalManager.corruptArtifacts.Inc()
}

// UpdateModelDimensions sets the dimensions of the model in use.
func UpdateModelDimensions(actors, items int) {
	globalManager.modelActors.Set(float64(actors))
	globalManager.modelItems.Set(float64(items))
}

// RecordSourceFallback increments the fallback counter for a dimension.
func RecordSourceFallback(dimension string) {
	globalManager.sourceFallbacks.WithLabelValues(dimension).Inc()
}

// RecordCommand increments the command counter.
func RecordCommand(command, outcome string) {
	globalManager.commands.WithLabelValues(command, outcome).Inc()
}

// Registry exposes the gatherer behind the global manager.
func Registry() prometheus.Gatherer {
	return customRegistry
}

// WriteTextfile writes the global registry in the textfile collector format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
