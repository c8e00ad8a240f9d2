package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"TradePulse/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsGenerated *prometheus.CounterVec
	signalsRejected  *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	stageLatency     *prometheus.HistogramVec
	lastScore        *prometheus.GaugeVec
	dedupCacheSize   prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signals_generated_total",
				Help: "Total number of signals generated and published",
			},
			[]string{"ticker", "classification"},
		),
		signalsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signals_rejected_total",
				Help: "Total number of candidates rejected before publication",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_score",
				Help: "Last prediction score for a ticker",
			},
			[]string{"ticker"},
		),
		dedupCacheSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradepulse_dedup_cache_size",
				Help: "Number of live cooldown entries in the dedup cache",
			},
		),
	}
}

// RecordSignalGenerated records a published signal.
func (r *Recorder) RecordSignalGenerated(ticker string, classification models.Classification) {
	r.signalsGenerated.WithLabelValues(ticker, string(classification)).Inc()
}

// RecordSignalRejected records a rejected candidate by reason bucket.
func (r *Recorder) RecordSignalRejected(reason string) {
	r.signalsRejected.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStageLatency records pipeline stage latency in seconds.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordLastScore records the last prediction score for a ticker.
func (r *Recorder) RecordLastScore(ticker string, score float64) {
	r.lastScore.WithLabelValues(ticker).Set(score)
}

// RecordCacheSize records the dedup cache size.
func (r *Recorder) RecordCacheSize(size int) {
	r.dedupCacheSize.Set(float64(size))
}
