// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package api

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/felixge/fgprof"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config of the web endpoints.
type Config struct {
	TelemetryPath      string
	HealthCheckTimeout time.Duration
	EnableDebugAPI     bool
}

// Store is what the endpoints need from the database client.
type Store interface {
	HealthChecker
	SetDebug(enabled bool)
}

func GenerateRouter(apiConf *Config, store Store, gatherer prometheus.Gatherer) http.Handler {
	router := mux.NewRouter()

	metricsHandler := promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{DisableCompression: true}),
	)
	router.Handle(apiConf.TelemetryPath, timeHandler(metrics.HTTPRequestDuration, "metrics", gziphandler.GzipHandler(metricsHandler))).
		Methods(http.MethodGet)

	router.Handle("/healthz", timeHandler(metrics.HTTPRequestDuration, "healthz", Health(store, apiConf.HealthCheckTimeout))).
		Methods(http.MethodGet, http.MethodHead)

	if apiConf.EnableDebugAPI {
		debug := router.PathPrefix("/debug").Subrouter()
		debug.Handle("/sql", timeHandler(metrics.HTTPRequestDuration, "debug_sql", SQLDebug(store))).
			Methods(http.MethodPut, http.MethodPost)
		debug.Handle("/fgprof", fgprof.Handler())
		debug.HandleFunc("/pprof/cmdline", pprof.Cmdline)
		debug.HandleFunc("/pprof/profile", pprof.Profile)
		debug.HandleFunc("/pprof/symbol", pprof.Symbol)
		debug.HandleFunc("/pprof/trace", pprof.Trace)
		debug.PathPrefix("/pprof/").HandlerFunc(pprof.Index)
	}

	return router
}

// timeHandler uses Prometheus histogram to track request time
func timeHandler(histogramVec prometheus.ObserverVec, path string, handler http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, r)
		elapsedMs := time.Since(start).Milliseconds()
		histogramVec.WithLabelValues(path).Observe(float64(elapsedMs))
	}
}
