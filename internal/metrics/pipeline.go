package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generation and query-pipeline Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "generation_requests_total",
			Help:      "Total number of text-generation requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sightline",
			Name:      "generation_request_duration_seconds",
			Help:      "Text-generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"model", "type"}, // "prompt" / "completion" / "total"
	)

	PipelineQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "pipeline_queries_total",
			Help:      "Queries processed by the router, by terminal outcome",
		},
		[]string{"outcome"}, // "answered" / "clarification" / "redirect" / "degraded"
	)

	PipelineStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sightline",
			Name:      "pipeline_step_duration_seconds",
			Help:      "Router step duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"step"},
	)

	PipelineContextSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sightline",
			Name:      "pipeline_context_size",
			Help:      "Context items selected per analytical query",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 8, 10},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers generation and pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(GenerationTokensTotal)
	prometheus.MustRegister(PipelineQueriesTotal)
	prometheus.MustRegister(PipelineStepDuration)
	prometheus.MustRegister(PipelineContextSize)
	pipelineMetricsRegistered = true
}
