// Package metrics holds the analyzer's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeImage     = "image_error"
	OutcomeDimension = "dimension_error"
	OutcomeError     = "error"
)

// Metrics is a set of collectors registered on their own registry.
// A nil *Metrics ignores every observation.
type Metrics struct {
	Registry *prometheus.Registry

	extractions     *prometheus.CounterVec
	ocrBand         prometheus.Histogram
	classifierBatch prometheus.Histogram
	predictions     *prometheus.CounterVec
	poolInFlight    prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreboard_extractions_total",
			Help: "Total number of screenshot extractions by outcome",
		}, []string{"outcome"}),

		ocrBand: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoreboard_ocr_band_duration_seconds",
			Help:    "Duration of OCR on one stat band",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),

		classifierBatch: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoreboard_classifier_batch_duration_seconds",
			Help:    "Duration of one hero classifier forward pass",
			Buckets: prometheus.DefBuckets,
		}),

		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoreboard_predictions_total",
			Help: "Total number of outcome buckets reported",
		}, []string{"bucket"}),

		poolInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scoreboard_ocr_pool_in_flight",
			Help: "OCR tasks currently holding a pool slot",
		}),
	}
}

// Extraction counts one extraction result.
func (m *Metrics) Extraction(outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
}

// OCRBand records the duration of one band's OCR.
func (m *Metrics) OCRBand(d time.Duration) {
	if m == nil {
		return
	}
	m.ocrBand.Observe(d.Seconds())
}

// ClassifierBatch records one classifier forward pass.
func (m *Metrics) ClassifierBatch(_ int, d time.Duration) {
	if m == nil {
		return
	}
	m.classifierBatch.Observe(d.Seconds())
}

// Prediction counts one reported outcome bucket.
func (m *Metrics) Prediction(bucket int) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(strconv.Itoa(bucket)).Inc()
}

// PoolInFlight sets the OCR pool in-flight gauge.
func (m *Metrics) PoolInFlight(n float64) {
	if m == nil {
		return
	}
	m.poolInFlight.Set(n)
}

// WriteFile dumps the registry in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
