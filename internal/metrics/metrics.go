package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics счётчики конвейера анализа
type Metrics struct {
	registry *prometheus.Registry

	framesProcessed prometheus.Counter
	framesSkipped   prometheus.Counter
	alertFrames     prometheus.Counter
	runs            *prometheus.CounterVec
	detectLatency   prometheus.Histogram
	runDuration     *prometheus.HistogramVec
}

// New создаёт метрики в отдельном реестре
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowd_frames_processed_total",
			Help: "Total frames analysed by the pipeline",
		}),
		framesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowd_frames_skipped_total",
			Help: "Total frames skipped after a detection failure",
		}),
		alertFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowd_alert_frames_total",
			Help: "Total frames classified as high density",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crowd_runs_total",
			Help: "Pipeline runs by media kind and outcome",
		}, []string{"kind", "outcome"}),
		detectLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crowd_detection_seconds",
			Help:    "Detector latency per frame",
			Buckets: prometheus.DefBuckets,
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crowd_run_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.framesProcessed,
		m.framesSkipped,
		m.alertFrames,
		m.runs,
		m.detectLatency,
		m.runDuration,
		collectors.NewGoCollector(),
	)

	return m
}

// FrameProcessed учитывает обработанный кадр
func (m *Metrics) FrameProcessed(alert bool) {
	if m == nil {
		return
	}
	m.framesProcessed.Inc()
	if alert {
		m.alertFrames.Inc()
	}
}

// FrameSkipped учитывает пропущенный кадр
func (m *Metrics) FrameSkipped() {
	if m == nil {
		return
	}
	m.framesSkipped.Inc()
}

// ObserveDetection записывает время работы детектора
func (m *Metrics) ObserveDetection(d time.Duration) {
	if m == nil {
		return
	}
	m.detectLatency.Observe(d.Seconds())
}

// RunFinished учитывает завершённый прогон
func (m *Metrics) RunFinished(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, outcome).Inc()
	m.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Registry реестр для экспорта
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler HTTP-обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
