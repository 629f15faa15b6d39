package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes bot metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	commandsTotal *prometheus.CounterVec
	fetchTotal    *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	lastRate      prometheus.Gauge
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yuanbot_commands_total",
				Help: "Bot commands handled, by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yuanbot_feed_fetch_total",
				Help: "Feed fetch attempts by outcome",
			},
			[]string{"outcome"},
		),
		fetchLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "yuanbot_feed_fetch_duration_seconds",
				Help:    "Feed request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		lastRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "yuanbot_last_rate_rub",
				Help: "Most recent CNY/RUB rate served",
			},
		),
	}
}

// Registry returns the registry backing this recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordCommand counts a handled command. Outcome is "ok" or an error kind.
func (r *Recorder) RecordCommand(command, outcome string) {
	r.commandsTotal.WithLabelValues(command, outcome).Inc()
}

// RecordFetch records feed latency and whether it failed.
func (r *Recorder) RecordFetch(elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.fetchTotal.WithLabelValues(outcome).Inc()
	r.fetchLatency.Observe(elapsed.Seconds())
}

// RecordLastRate stores the latest rate.
func (r *Recorder) RecordLastRate(value float64) {
	r.lastRate.Set(value)
}
