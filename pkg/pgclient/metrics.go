// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package pgclient

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/routewatch/bmpstore/pkg/util"
)

var (
	connectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "sql_database",
			Name:      "connect_attempts_total",
			Help:      "Attempts to establish the initial database connection, by outcome.",
		},
		[]string{"outcome"},
	)
	healthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: util.PromNamespace,
			Subsystem: "sql_database",
			Name:      "health_checks_total",
			Help:      "Database health checks, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(connectAttempts, healthChecks)
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
