package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	backtests      *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	sinkWrites     *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg. A nil reg
// means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		backtests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantlab_backtests_total",
				Help: "Total number of strategy evaluations",
			},
			[]string{"strategy", "result"},
		),
		upstreamErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantlab_upstream_errors_total",
				Help: "Total number of failed calls to external providers",
			},
			[]string{"provider"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantlab_cache_lookups_total",
				Help: "Price cache lookups by result",
			},
			[]string{"result"},
		),
		sinkWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantlab_sink_writes_total",
				Help: "Backtest runs written to each sink",
			},
			[]string{"sink", "result"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantlab_last_price",
				Help: "Last closing price seen for a ticker",
			},
			[]string{"ticker"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantlab_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBacktest counts one strategy evaluation; result is "ok" or "error".
func (r *Recorder) RecordBacktest(strategy, result string) {
	r.backtests.WithLabelValues(strategy, result).Inc()
}

func (r *Recorder) RecordUpstreamError(provider string) {
	r.upstreamErrors.WithLabelValues(provider).Inc()
}

// RecordCache counts a cache lookup; result is "hit" or "miss".
func (r *Recorder) RecordCache(result string) {
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordSinkWrite(sink, result string) {
	r.sinkWrites.WithLabelValues(sink, result).Inc()
}

// RecordLastPrice records the last price for a ticker.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordBacktest(string, string)   {}
func (Nop) RecordUpstreamError(string)      {}
func (Nop) RecordCache(string)              {}
func (Nop) RecordSinkWrite(string, string)  {}
func (Nop) RecordLastPrice(string, float64) {}
func (Nop) RecordLatency(string, float64)   {}
