package monitoring

import (
	"net/http"

	"exoml-server/core/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the "outcome" label
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// Metrics exports prediction and notebook-run counters for Prometheus
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	bestScore   *prometheus.GaugeVec
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exoml_predictions_total",
			Help: "Predictions served, by model and label",
		}, []string{"model", "label"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exoml_notebook_runs_total",
			Help: "Notebook executions, by dataset and outcome",
		}, []string{"dataset", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exoml_notebook_run_seconds",
			Help:    "Wall-clock duration of notebook executions",
			Buckets: []float64{5, 15, 30, 60, 120, 180, 240, 300, 600},
		}, []string{"dataset"}),
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "exoml_best_model_accuracy_percent",
			Help: "Accuracy of the best model from the latest successful run",
		}, []string{"dataset", "model"}),
	}

	m.registry.MustRegister(
		m.predictions,
		m.runs,
		m.runDuration,
		m.bestScore,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrediction counts one served prediction
func (m *Metrics) ObservePrediction(model string, label models.Label) {
	m.predictions.WithLabelValues(model, string(label)).Inc()
}

// ObserveRun records a finished notebook run
func (m *Metrics) ObserveRun(report *models.ExecutionReport) {
	m.runs.WithLabelValues(report.DatasetTag, Outcome(report)).Inc()
	m.runDuration.WithLabelValues(report.DatasetTag).Observe(report.ExecutionTimeSeconds)

	if report.Results == nil || report.Results.BestModel == nil {
		return
	}
	if accuracy, ok := report.Results.Metrics["accuracy"]; ok {
		m.bestScore.DeletePartialMatch(prometheus.Labels{"dataset": report.DatasetTag})
		m.bestScore.WithLabelValues(report.DatasetTag, *report.Results.BestModel).Set(accuracy)
	}
}

// Handler serves the exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Outcome classifies a report for the "outcome" label
func Outcome(report *models.ExecutionReport) string {
	switch {
	case report.Success:
		return OutcomeSuccess
	case report.ErrorDetails != nil && report.ErrorDetails.ErrorType == "TimeoutError":
		return OutcomeTimeout
	default:
		return OutcomeFailure
	}
}
