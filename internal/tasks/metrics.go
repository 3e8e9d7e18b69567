package tasks

import (
	"net/http"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives publication metrics.
type Recorder interface {
	// RecordOutcome counts one result set outcome. path is "batch" or "single".
	RecordOutcome(path string, status models.ReportStatus)
	// RecordStage observes how long one render, dispatch or commit took.
	RecordStage(phase Phase, d time.Duration)
	// RecordRun observes a finished batch run.
	RecordRun(report *models.BatchReport)
}

type noopRecorder struct{}

func (noopRecorder) RecordOutcome(string, models.ReportStatus) {}
func (noopRecorder) RecordStage(Phase, time.Duration)          {}
func (noopRecorder) RecordRun(*models.BatchReport)              {}

// PrometheusRecorder is a Prometheus implementation of [Recorder] with its own registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	outcomes      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	runDuration   prometheus.Histogram
	runGroups     prometheus.Counter
}

// NewPrometheusRecorder creates a recorder and registers its collectors along with the
// standard Go and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marksheet_publish_outcomes_total",
			Help: "Result set outcomes by publication path and status.",
		}, []string{"path", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marksheet_publish_stage_duration_seconds",
			Help:    "Duration of render, dispatch and commit stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marksheet_batch_run_duration_seconds",
			Help:    "Duration of batch publication runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		runGroups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marksheet_batch_result_sets_total",
			Help: "Result sets processed by batch runs.",
		}),
	}

	registry.MustRegister(r.outcomes)
	registry.MustRegister(r.stageDuration)
	registry.MustRegister(r.runDuration)
	registry.MustRegister(r.runGroups)

	return r
}

// Registry returns the Prometheus registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *PrometheusRecorder) RecordOutcome(path string, status models.ReportStatus) {
	r.outcomes.WithLabelValues(path, string(status)).Inc()
}

func (r *PrometheusRecorder) RecordStage(phase Phase, d time.Duration) {
	r.stageDuration.WithLabelValues(phase.String()).Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordRun(report *models.BatchReport) {
	r.runDuration.Observe(report.Duration().Seconds())
	r.runGroups.Add(float64(len(report.Entries)))
}
