// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/routewatch/bmpstore/pkg/util"
	"github.com/stretchr/testify/require"
)

func serve(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	h.ServeHTTP(w, req)
	return w
}

func TestRouter(t *testing.T) {
	store := &mockStore{}
	conf := &Config{TelemetryPath: "/metrics", HealthCheckTimeout: time.Second}
	router := GenerateRouter(conf, store, prometheus.DefaultGatherer)

	require.Equal(t, http.StatusOK, serve(router, "GET", "/healthz", nil).Code)

	w := serve(router, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `bmpstore_http_request_duration_ms_count{path="healthz"}`)

	w = serve(router, "GET", "/metrics", http.Header{"Accept-Encoding": {"gzip"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	require.Equal(t, http.StatusMethodNotAllowed, serve(router, "POST", "/healthz", nil).Code)

	// debug endpoints are off by default
	require.Equal(t, http.StatusNotFound, serve(router, "PUT", "/debug/sql?enabled=true", nil).Code)
	require.Equal(t, http.StatusNotFound, serve(router, "GET", "/debug/pprof/", nil).Code)
	require.Empty(t, store.debug)

	count, err := util.ExtractHistogramCount(metrics.HTTPRequestDuration.WithLabelValues("healthz").(prometheus.Histogram))
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, uint64(1))
}

func TestRouterDebugAPI(t *testing.T) {
	store := &mockStore{}
	conf := &Config{TelemetryPath: "/telemetry", EnableDebugAPI: true}
	router := GenerateRouter(conf, store, prometheus.DefaultGatherer)

	require.Equal(t, http.StatusNotFound, serve(router, "GET", "/metrics", nil).Code)
	require.Equal(t, http.StatusOK, serve(router, "GET", "/telemetry", nil).Code)

	require.Equal(t, http.StatusNoContent, serve(router, "PUT", "/debug/sql?enabled=true", nil).Code)
	require.Equal(t, []bool{true}, store.debug)

	require.Equal(t, http.StatusOK, serve(router, "GET", "/debug/pprof/", nil).Code)
	require.Equal(t, http.StatusOK, serve(router, "GET", "/debug/pprof/cmdline", nil).Code)
}
