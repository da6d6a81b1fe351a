// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector records smoke-run metrics. A nil *Collector is valid and all
// record methods become no-ops, so wiring metrics stays optional in tests.
type Collector struct {
	modelCallsTotal    *prometheus.CounterVec
	parseFailuresTotal *prometheus.CounterVec
	validationRetries  prometheus.Counter
	actionsTotal       *prometheus.CounterVec
	runDuration        prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector and registers its metrics with reg.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Total number of model calls by entry point",
		},
		[]string{"entrypoint"},
	)

	c.parseFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Total number of action parse failures by reason",
		},
		[]string{"reason"},
	)

	c.validationRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_retries_total",
			Help:      "Total number of corrective re-prompts issued",
		},
	)

	c.actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "browser_actions_total",
			Help:      "Total number of browser actions executed",
		},
		[]string{"action", "outcome"},
	)

	c.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Smoke run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	reg.MustRegister(
		c.modelCallsTotal,
		c.parseFailuresTotal,
		c.validationRetries,
		c.actionsTotal,
		c.runDuration,
	)

	return c
}

// RecordModelCall counts one model round trip.
func (c *Collector) RecordModelCall(entrypoint string) {
	if c == nil {
		return
	}
	c.modelCallsTotal.WithLabelValues(entrypoint).Inc()
}

// RecordParseFailure counts one failed action parse.
func (c *Collector) RecordParseFailure(reason string) {
	if c == nil {
		return
	}
	c.parseFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordValidationRetry counts one corrective re-prompt.
func (c *Collector) RecordValidationRetry() {
	if c == nil {
		return
	}
	c.validationRetries.Inc()
}

// RecordAction counts one executed browser action.
func (c *Collector) RecordAction(name string, success bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	c.actionsTotal.WithLabelValues(name, outcome).Inc()
}

// ObserveRunDuration records a completed run's wall-clock time.
func (c *Collector) ObserveRunDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.runDuration.Observe(d.Seconds())
}
