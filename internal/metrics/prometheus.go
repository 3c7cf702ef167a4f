// Package metrics exposes the wallet engine counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "walletledger"

// Collector implements wallet.MetricsCollector and records the HTTP rate
// limiter and scheduled job outcomes.
type Collector struct {
	operationDuration *prometheus.HistogramVec
	operations        *prometheus.CounterVec
	errors            *prometheus.CounterVec
	rateLimits        *prometheus.CounterVec
	volume            *prometheus.CounterVec
	sinkFailures      *prometheus.CounterVec
	jobRuns           *prometheus.CounterVec
}

// NewCollector registers the engine metrics with reg. A nil reg uses the
// default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of wallet operations including commit",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Wallet operations by result",
			},
			[]string{"operation", "result"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_errors_total",
				Help:      "Failed wallet operations by error code",
			},
			[]string{"operation", "code"},
		),
		rateLimits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_decisions_total",
				Help:      "API rate limit checks by outcome",
			},
			[]string{"outcome"},
		),
		volume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_volume_total",
				Help:      "Sum of committed ledger entry amounts",
			},
			[]string{"operation", "currency"},
		),
		sinkFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_failures_total",
				Help:      "Post-commit deliveries that failed",
			},
			[]string{"sink"},
		),
		jobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs by result",
			},
			[]string{"job", "result"},
		),
	}
}

func (c *Collector) RecordOperationDuration(operation string, d time.Duration) {
	c.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) RecordOperationResult(operation, result string) {
	c.operations.WithLabelValues(operation, result).Inc()
}

// RecordRateLimit counts one rate limit check: allowed, limited or error.
func (c *Collector) RecordRateLimit(outcome string) {
	c.rateLimits.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordError(operation, code string) {
	if code == "" {
		code = "unknown"
	}
	c.errors.WithLabelValues(operation, code).Inc()
}

func (c *Collector) RecordVolume(operation, currency string, amount float64) {
	c.volume.WithLabelValues(operation, currency).Add(amount)
}

func (c *Collector) RecordSinkFailure(sink string) {
	c.sinkFailures.WithLabelValues(sink).Inc()
}

// RecordJobRun counts one scheduled job execution.
func (c *Collector) RecordJobRun(job, result string) {
	c.jobRuns.WithLabelValues(job, result).Inc()
}
