package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
)

var (
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubetool_tasks_total",
			Help: "Total number of finished tasks by surface and final status",
		},
		[]string{"surface", "status"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubetool_task_duration_seconds",
			Help:    "Time spent processing one video",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"surface"},
	)

	stepErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tubetool_step_errors_total",
			Help: "Total number of non-fatal step failures",
		},
	)

	downloadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tubetool_download_bytes_total",
			Help: "Total size of completed video downloads",
		},
	)
)

// Init registers the metrics and the tracer provider. Call it once per
// process, before any task runs.
func Init(ctx context.Context) error {
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(taskDuration)
	prometheus.MustRegister(stepErrorsTotal)
	prometheus.MustRegister(downloadBytesTotal)

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	return nil
}

// RecordTask counts one finished task.
func RecordTask(surface, status string) {
	tasksTotal.WithLabelValues(surface, status).Inc()
}

// StartTaskTimer returns a stop function that records the task duration.
func StartTaskTimer(surface string) func() {
	timer := prometheus.NewTimer(taskDuration.WithLabelValues(surface))
	return func() { timer.ObserveDuration() }
}

// RecordStepError counts one non-fatal step failure.
func RecordStepError() {
	stepErrorsTotal.Inc()
}

// RecordDownloadBytes adds the size of one completed download.
func RecordDownloadBytes(n int64) {
	downloadBytesTotal.Add(float64(n))
}

// StartMetricsServer exposes /metrics on its own listener for modes that
// run no HTTP server of their own. The web server mounts the handler on
// its main mux instead.
func StartMetricsServer(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil); err != nil {
			log.WithError(err).Error("metrics server failed")
		}
	}()
}
