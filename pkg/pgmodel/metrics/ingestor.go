// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/routewatch/bmpstore/pkg/util"
)

var (
	QueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: util.PromNamespace,
			Subsystem: "queue",
			Name:      "length",
			Help:      "Number of write requests waiting in the write queue.",
		},
	)
	QueueCapacity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: util.PromNamespace,
			Subsystem: "queue",
			Name:      "capacity",
			Help:      "Maximum number of write requests the queue holds, 0 when unbounded.",
		},
	)
	QueuePushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "queue",
			Name:      "pushed_total",
			Help:      "Total number of write requests pushed to the queue.",
		}, []string{"op"},
	)
	QueueRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "queue",
			Name:      "rejected_total",
			Help:      "Total number of write requests dropped because the queue was full or closed.",
		}, []string{"op", "reason"},
	)
	QueueLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: util.PromNamespace,
			Subsystem: "queue",
			Name:      "latency_seconds",
			Help:      "Time write requests spent in the queue before being drained.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	WriterState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "state",
			Help:      "Current state of the writer loop: 0 idle, 1 draining, 2 building, 3 executing, 4 committing, 5 shutting down.",
		},
	)
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "batch_duration_seconds",
			Help:      "Time spent building, executing and committing one batch.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	BatchRequests = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "batch_requests",
			Help:      "Number of write requests per drained batch.",
			Buckets:   util.HistogramBucketsSaturating(0, 2, 10000),
		},
	)
	Statements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "statements_total",
			Help:      "Total number of statements executed against the database.",
		}, []string{"op"},
	)
	RowsPerStatement = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "rows_per_statement",
			Help:      "Number of rows carried by one statement.",
			Buckets:   util.HistogramBucketsSaturating(0, 2, 5000),
		}, []string{"op"},
	)
	RowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "rows_written_total",
			Help:      "Total number of rows committed to the database.",
		}, []string{"op"},
	)
	FailedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "failed_requests_total",
			Help:      "Total number of write requests that failed and were logged, by failure class.",
		}, []string{"op", "class"},
	)
	Rollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "rollbacks_total",
			Help:      "Total number of rolled back transactions.",
		},
	)
	Reconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "writer",
			Name:      "reconnects_total",
			Help:      "Total number of reconnect attempts, by outcome.",
		}, []string{"outcome"},
	)

	FreshnessChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "freshness_cache",
			Name:      "checks_total",
			Help:      "Total number of freshness checks, by result (suppressed or proceed).",
		}, []string{"kind", "result"},
	)
	FreshnessEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "freshness_cache",
			Name:      "evictions_total",
			Help:      "Total number of entries evicted from a freshness cache because it was full.",
		}, []string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		QueueLength,
		QueueCapacity,
		QueuePushed,
		QueueRejected,
		QueueLatency,
		WriterState,
		BatchDuration,
		BatchRequests,
		Statements,
		RowsPerStatement,
		RowsWritten,
		FailedRequests,
		Rollbacks,
		Reconnects,
		FreshnessChecks,
		FreshnessEvictions,
	)
}
