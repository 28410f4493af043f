// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/routewatch/bmpstore/pkg/api"
	"github.com/routewatch/bmpstore/pkg/log"
	"github.com/routewatch/bmpstore/pkg/version"
)

const shutdownTimeout = 5 * time.Second

var startupError = fmt.Errorf("startup error")

func Run(cfg *Config) error {
	log.Info("msg", "Version:"+version.Version+"; Commit Hash: "+version.CommitHash)

	redacted := *cfg
	redacted.PgmodelCfg.Password = "****"
	redacted.PgmodelCfg.DbUri = "****"
	log.Info("config", fmt.Sprintf("%+v", redacted))

	fatal := make(chan error, 1)
	client, err := CreateClient(cfg, func(err error) {
		select {
		case fatal <- err:
		default:
		}
	})
	if err != nil {
		log.Error("msg", "aborting startup due to error", "err", err.Error())
		return startupError
	}
	defer client.Close()

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Error("msg", "Listen failure", "err", err)
		return startupError
	}

	log.Info("msg", "Starting up...")
	log.Info("msg", "Listening", "addr", listener.Addr())
	return serve(context.Background(), cfg, client, listener, fatal)
}

// serve runs the web endpoints until a signal arrives, ctx is canceled or
// the writer reports a fatal error.
func serve(ctx context.Context, cfg *Config, store api.Store, listener net.Listener, fatal <-chan error) error {
	router := api.GenerateRouter(&api.Config{
		TelemetryPath:      cfg.TelemetryPath,
		HealthCheckTimeout: cfg.HealthCheckTimeout,
		EnableDebugAPI:     cfg.EnableDebugAPI,
	}, store, prometheus.DefaultGatherer)

	var g run.Group

	srv := &http.Server{Handler: router}
	g.Add(func() error {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("msg", "web server shutdown failed", "err", err)
		}
	})

	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	writerCtx, cancel := context.WithCancel(ctx)
	g.Add(func() error {
		select {
		case err := <-fatal:
			return fmt.Errorf("writer stopped: %w", err)
		case <-writerCtx.Done():
			return nil
		}
	}, func(error) {
		cancel()
	})

	err := g.Run()
	var sig run.SignalError
	switch {
	case errors.As(err, &sig):
		log.Info("msg", "received signal, shutting down", "signal", sig.Signal)
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		log.Error("msg", "shutting down", "err", err)
	}
	return err
}
