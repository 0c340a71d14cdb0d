// Package metrics provides the centralized Prometheus metrics registry for
// the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wincast",
		Name:      "pipeline_runs_total",
		Help:      "Total number of pipeline runs by outcome",
	}, []string{"venue", "outcome"})
	RaceCardFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wincast",
		Name:      "race_card_fetches_total",
		Help:      "Total number of race-card downloads by outcome",
	}, []string{"venue", "outcome"})
	PredictionsWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wincast",
		Name:      "predictions_written_total",
		Help:      "Total number of horse predictions produced",
	})
	LeakageRowsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wincast",
		Name:      "leakage_rows_dropped_total",
		Help:      "Total history rows dropped by the leakage guard",
	})
)

// Gauge metrics
var (
	TrainingRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wincast",
		Name:      "training_rows",
		Help:      "Training rows used in the latest run per venue",
	}, []string{"venue"})
	ModelAUC = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wincast",
		Name:      "model_auc",
		Help:      "Cross-validated ensemble AUC of the latest run per venue",
	}, []string{"venue"})
	ModelHitAt1 = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wincast",
		Name:      "model_hit_at_1",
		Help:      "Cross-validated winner hit rate of the latest run per venue",
	}, []string{"venue"})
)

// Histogram metrics
var (
	PipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wincast",
		Name:      "pipeline_duration_seconds",
		Help:      "End-to-end pipeline duration per venue in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	}, []string{"venue"})
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wincast",
		Name:      "training_duration_seconds",
		Help:      "Ensemble training duration in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(RaceCardFetchesTotal)
		registry.MustRegister(PredictionsWrittenTotal)
		registry.MustRegister(LeakageRowsDroppedTotal)

		registry.MustRegister(TrainingRows)
		registry.MustRegister(ModelAUC)
		registry.MustRegister(ModelHitAt1)

		registry.MustRegister(PipelineDuration)
		registry.MustRegister(TrainingDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRun records a pipeline run outcome for a venue.
func RecordRun(venue, outcome string) {
	PipelineRunsTotal.WithLabelValues(venue, outcome).Inc()
}

// RecordFetch records a race-card fetch outcome for a venue.
func RecordFetch(venue, outcome string) {
	RaceCardFetchesTotal.WithLabelValues(venue, outcome).Inc()
}
