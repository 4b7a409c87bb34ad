// Package metrics exposes Prometheus metrics for the voice pipeline.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voicegate"

// Metrics contains all Prometheus metrics for the gateway.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	Runs                *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	SlotWait            *prometheus.HistogramVec
	InFlight            prometheus.Gauge
	CompletionFallbacks *prometheus.CounterVec

	// Audio sizes
	InputBytes  prometheus.Histogram
	OutputBytes prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by final state",
		}, []string{"state"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"stage", "result"}),
		SlotWait: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_slot_wait_seconds",
			Help:      "Time spent waiting for a free stage slot",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
		}, []string{"stage"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_in_flight",
			Help:      "Pipeline runs currently executing",
		}),
		CompletionFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_fallbacks_total",
			Help:      "Replies replaced by fallback text, by reason",
		}, []string{"reason"}),

		InputBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "input_audio_bytes",
			Help:      "Size of received PCM payloads",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10), // 16KB to ~8MB
		}),
		OutputBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "output_audio_bytes",
			Help:      "Size of returned PCM payloads",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"method", "path"}),
	}
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the exposition format for /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted marks a pipeline run in flight and returns the func that ends it.
func (m *Metrics) RunStarted() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}

// RunFinished counts a run by its final state.
func (m *Metrics) RunFinished(state string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(state).Inc()
}

// ObserveStage records how long a stage took and whether it succeeded.
func (m *Metrics) ObserveStage(stage string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.StageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

// ObserveSlotWait records time spent acquiring a stage slot.
func (m *Metrics) ObserveSlotWait(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.SlotWait.WithLabelValues(stage).Observe(d.Seconds())
}

// CompletionFallback counts a reply replaced by fallback text.
func (m *Metrics) CompletionFallback(reason string) {
	if m == nil {
		return
	}
	m.CompletionFallbacks.WithLabelValues(reason).Inc()
}

// ObserveInput records the size of a received payload.
func (m *Metrics) ObserveInput(n int) {
	if m == nil {
		return
	}
	m.InputBytes.Observe(float64(n))
}

// ObserveOutput records the size of a returned payload.
func (m *Metrics) ObserveOutput(n int) {
	if m == nil {
		return
	}
	m.OutputBytes.Observe(float64(n))
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
