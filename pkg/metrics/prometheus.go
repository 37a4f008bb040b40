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

const namespace = "forecast"

// Recorder implements domain.repository.Metrics and the HTTP observer using Prometheus.
type Recorder struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	httpDurationHighr prometheus.Histogram

	predictions      *prometheus.CounterVec
	inferenceLatency prometheus.Histogram
	samples          *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	modelLoaded      prometheus.Gauge
	lastPrice        *prometheus.GaugeVec
}

// NewRegistry returns a registry carrying the process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return reg
}

// Handler exposes everything registered on reg in the text exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// New creates a new Prometheus metrics recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of requests by method, status and handler.",
			},
			[]string{"handler", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Latency with only few buckets by handler.",
				Buckets: []float64{0.1, 0.5, 1},
			},
			[]string{"handler", "method"},
		),
		httpDurationHighr: f.NewHistogram(
			prometheus.HistogramOpts{
				Name: "http_request_duration_highr_seconds",
				Help: "Latency with many buckets but no API specific labels.",
				Buckets: []float64{
					0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75,
					1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5, 7.5, 10, 30, 60,
				},
			},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Prediction requests by outcome.",
			},
			[]string{"status"},
		),
		inferenceLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inference_duration_seconds",
				Help:      "Duration of scale, forward pass and inverse scale.",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		samples: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sample_data_total",
				Help:      "Sample data responses by source.",
			},
			[]string{"source"},
		),
		providerFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_failures_total",
				Help:      "Market data provider failures by reason.",
			},
			[]string{"provider", "reason"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		modelLoaded: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_loaded",
				Help:      "1 when model and scalers are loaded.",
			},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_predicted_price",
				Help:      "Last predicted price for a ticker",
			},
			[]string{"ticker"},
		),
	}
}

// ObserveHTTPRequest records one served request. Status codes are grouped by class.
func (r *Recorder) ObserveHTTPRequest(handler, method string, status int, d time.Duration) {
	secs := d.Seconds()
	r.httpRequests.WithLabelValues(handler, method, statusClass(status)).Inc()
	r.httpDuration.WithLabelValues(handler, method).Observe(secs)
	r.httpDurationHighr.Observe(secs)
}

// RecordPrediction counts a prediction outcome (success, unavailable, invalid, error).
func (r *Recorder) RecordPrediction(status string) {
	r.predictions.WithLabelValues(status).Inc()
}

// RecordInferenceLatency records inference latency in seconds.
func (r *Recorder) RecordInferenceLatency(seconds float64) {
	r.inferenceLatency.Observe(seconds)
}

// RecordSample counts a sample-data response by source.
func (r *Recorder) RecordSample(source string) {
	r.samples.WithLabelValues(source).Inc()
}

// RecordProviderFailure counts a failed provider attempt.
func (r *Recorder) RecordProviderFailure(provider, reason string) {
	r.providerFailures.WithLabelValues(provider, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) SetModelLoaded(loaded bool) {
	if loaded {
		r.modelLoaded.Set(1)
		return
	}
	r.modelLoaded.Set(0)
}

// RecordLastPrice records the last predicted price for a ticker.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
