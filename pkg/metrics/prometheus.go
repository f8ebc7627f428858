package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses            *prometheus.CounterVec
	tiltScore           *prometheus.HistogramVec
	interventions       *prometheus.CounterVec
	enrichmentFallbacks *prometheus.CounterVec
	errorsTotal         *prometheus.CounterVec
	lastPrice           *prometheus.GaugeVec
	latency             *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analyses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiltguard_analyses_total",
				Help: "Total number of behavioral analyses performed",
			},
			[]string{"ticker"},
		),
		tiltScore: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tiltguard_tilt_score",
				Help:    "Distribution of computed tilt scores",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 8.5, 9, 10},
			},
			[]string{"ticker"},
		),
		interventions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiltguard_interventions_total",
				Help: "Classification outcomes by intervention band",
			},
			[]string{"band"},
		),
		enrichmentFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiltguard_enrichment_fallbacks_total",
				Help: "Enrichment calls that fell back to the deterministic rationale",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiltguard_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tiltguard_last_price",
				Help: "Last streamed price for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tiltguard_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis records one completed analysis and its score.
func (r *Recorder) RecordAnalysis(ticker string, score float64) {
	r.analyses.WithLabelValues(ticker).Inc()
	r.tiltScore.WithLabelValues(ticker).Observe(score)
}

// RecordIntervention records a classification outcome.
func (r *Recorder) RecordIntervention(band string) {
	r.interventions.WithLabelValues(band).Inc()
}

// RecordEnrichmentFallback records a fallback to the deterministic rationale.
func (r *Recorder) RecordEnrichmentFallback(reason string) {
	r.enrichmentFallbacks.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last streamed price for a ticker.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
