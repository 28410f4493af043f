// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/routewatch/bmpstore/pkg/util"
)

var metrics = createMetrics()

type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
}

func createMetrics() *Metrics {
	return &Metrics{
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: util.PromNamespace,
				Subsystem: "http",
				Name:      "request_duration_ms",
				Help:      "Duration of HTTP request in milliseconds",
				Buckets:   []float64{0.1, 1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"path"},
		),
	}
}

func init() {
	prometheus.MustRegister(metrics.HTTPRequestDuration)
}
