package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks stage execution across a batch run.
type PipelineMetrics struct {
	registry *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageInFlight prometheus.Gauge
	attemptsTotal *prometheus.CounterVec
	abortedTotal  *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docinsight",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Terminal stage outcomes by stage, status and failure class.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"stage", "status", "class"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docinsight",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage execution duration including retries and backoff.",
			Buckets:   prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"stage", "status"},
	)
	stageInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docinsight",
			Subsystem: "pipeline",
			Name:      "stage_in_flight",
			Help:      "Number of stage executions currently in flight.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	attemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docinsight",
			Subsystem: "pipeline",
			Name:      "stage_attempts_total",
			Help:      "Remote attempts made per stage, including retries.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"stage"},
	)
	abortedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docinsight",
			Subsystem: "pipeline",
			Name:      "stage_aborted_total",
			Help:      "Stage executions reverted by cancellation.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"stage"},
	)

	registry.MustRegister(stageTotal, stageDuration, stageInFlight, attemptsTotal, abortedTotal)

	return &PipelineMetrics{
		registry:      registry,
		stageTotal:    stageTotal,
		stageDuration: stageDuration,
		stageInFlight: stageInFlight,
		attemptsTotal: attemptsTotal,
		abortedTotal:  abortedTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StageStarted() {
	m.stageInFlight.Inc()
}

func (m *PipelineMetrics) StageFinished(stage, status, class string, attempts int, duration time.Duration) {
	m.stageInFlight.Dec()
	m.stageTotal.WithLabelValues(stage, status, class).Inc()
	m.stageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
	m.attemptsTotal.WithLabelValues(stage).Add(float64(attempts))
}

func (m *PipelineMetrics) StageAborted(stage string, duration time.Duration) {
	m.stageInFlight.Dec()
	m.abortedTotal.WithLabelValues(stage).Inc()
	m.stageDuration.WithLabelValues(stage, "aborted").Observe(duration.Seconds())
}
