package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalModeTotal     *prometheus.CounterVec
	retrievalDegradedTotal *prometheus.CounterVec
	retrievedEntries       *prometheus.HistogramVec
	retrievalDuration      *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duomind",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duomind",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "duomind",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalModeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duomind",
			Subsystem: "retrieval",
			Name:      "mode_requests_total",
			Help:      "Total successful retrieval requests by mode.",
		},
		[]string{"service", "endpoint", "mode"},
	)
	retrievalDegradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duomind",
			Subsystem: "retrieval",
			Name:      "degraded_total",
			Help:      "Total retrieval requests served lexical-only.",
		},
		[]string{"service", "endpoint"},
	)
	retrievedEntries := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duomind",
			Subsystem: "retrieval",
			Name:      "entries",
			Help:      "Distribution of fused entries per successful retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duomind",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalModeTotal,
		retrievalDegradedTotal,
		retrievedEntries,
		retrievalDuration,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		retrievalModeTotal:     retrievalModeTotal,
		retrievalDegradedTotal: retrievalDegradedTotal,
		retrievedEntries:       retrievedEntries,
		retrievalDuration:      retrievalDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRetrieval(service, endpoint, mode string, entries int, degraded bool, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.retrievalModeTotal.WithLabelValues(service, endpoint, mode).Inc()
	m.retrievedEntries.WithLabelValues(service, endpoint).Observe(float64(entries))
	m.retrievalDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	if degraded {
		m.retrievalDegradedTotal.WithLabelValues(service, endpoint).Inc()
	}
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/documents/") {
		return "/v1/documents/{document_id}"
	}
	return path
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
