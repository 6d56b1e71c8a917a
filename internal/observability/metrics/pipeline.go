package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics instruments document processing and generation runs.
type PipelineMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge

	runTotal       *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	questionsTotal *prometheus.CounterVec

	embedCacheTotal *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcq",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mcq",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "mcq",
			Subsystem:   "worker",
			Name:        "document_process_in_flight",
			Help:        "In-flight document processing tasks.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcq",
			Subsystem: "generation",
			Name:      "run_total",
			Help:      "Generation runs by strategy and outcome.",
		},
		[]string{"service", "strategy", "outcome"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mcq",
			Subsystem: "generation",
			Name:      "run_duration_seconds",
			Help:      "Generation run duration in seconds by strategy.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "strategy"},
	)
	questionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcq",
			Subsystem: "generation",
			Name:      "questions_total",
			Help:      "Question candidates by disposition (accepted or rejection reason).",
		},
		[]string{"service", "disposition"},
	)

	embedCacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mcq",
			Subsystem: "embedding",
			Name:      "cache_total",
			Help:      "Embedding cache lookups by result.",
		},
		[]string{"service", "result"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, runTotal, runDuration, questionsTotal, embedCacheTotal)

	return &PipelineMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		runTotal:        runTotal,
		runDuration:     runDuration,
		questionsTotal:  questionsTotal,
		embedCacheTotal: embedCacheTotal,
	}
}

func (m *PipelineMetrics) ObserveProcess(service, status string, duration time.Duration) {
	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ProcessStarted()  { m.processInFlight.Inc() }
func (m *PipelineMetrics) ProcessFinished() { m.processInFlight.Dec() }

func (m *PipelineMetrics) ObserveRun(service, strategy, outcome string, duration time.Duration) {
	m.runTotal.WithLabelValues(service, strategy, outcome).Inc()
	m.runDuration.WithLabelValues(service, strategy).Observe(duration.Seconds())
}

func (m *PipelineMetrics) CountQuestion(service, disposition string) {
	m.questionsTotal.WithLabelValues(service, disposition).Inc()
}

func (m *PipelineMetrics) CountEmbedCache(service, result string) {
	m.embedCacheTotal.WithLabelValues(service, result).Inc()
}

// Handler exposes the registry for the worker metrics endpoint.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
