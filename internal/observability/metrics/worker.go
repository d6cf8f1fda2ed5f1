package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	documentsTotal     *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
	chunksPerDocument  *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duomind",
			Subsystem: "worker",
			Name:      "documents_total",
			Help:      "Total processed documents by outcome.",
		},
		[]string{"service", "status"},
	)
	processingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duomind",
			Subsystem: "worker",
			Name:      "processing_duration_seconds",
			Help:      "Document processing duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service"},
	)
	chunksPerDocument := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duomind",
			Subsystem: "worker",
			Name:      "chunks_per_document",
			Help:      "Distribution of chunks produced per document.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
		[]string{"service"},
	)

	registry.MustRegister(documentsTotal, processingDuration, chunksPerDocument)

	return &WorkerMetrics{
		registry:           registry,
		documentsTotal:     documentsTotal,
		processingDuration: processingDuration,
		chunksPerDocument:  chunksPerDocument,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) RecordDocument(service, status string, chunks int, duration time.Duration) {
	m.documentsTotal.WithLabelValues(service, status).Inc()
	m.processingDuration.WithLabelValues(service).Observe(duration.Seconds())
	if chunks > 0 {
		m.chunksPerDocument.WithLabelValues(service).Observe(float64(chunks))
	}
}
