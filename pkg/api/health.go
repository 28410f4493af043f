// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/routewatch/bmpstore/pkg/log"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Health answers 200 when the database answers a ping within timeout.
func Health(hc HealthChecker, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := hc.HealthCheck(ctx)
		if err != nil {
			log.Warn("msg", "Healthcheck failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Length", "0")
	}
}

// SQLDebug switches statement logging on or off according to the
// `enabled` form value.
func SQLDebug(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := strconv.ParseBool(r.FormValue("enabled"))
		if err != nil {
			http.Error(w, "enabled must be a boolean", http.StatusBadRequest)
			return
		}
		store.SetDebug(enabled)
		log.Info("msg", "statement logging switched", "enabled", enabled)
		w.WriteHeader(http.StatusNoContent)
	}
}
