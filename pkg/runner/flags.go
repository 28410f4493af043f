// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package runner

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/routewatch/bmpstore/pkg/log"
	"github.com/routewatch/bmpstore/pkg/pgclient"
	"github.com/routewatch/bmpstore/pkg/pgmodel/ingestor"
	"github.com/routewatch/bmpstore/pkg/util"
)

type Config struct {
	ListenAddr         string
	TelemetryPath      string
	HealthCheckTimeout time.Duration
	EnableDebugAPI     bool
	LogSQL             bool
	ConfigFile         string
	PgmodelCfg         pgclient.Config
	IngestCfg          ingestor.Config
	LogCfg             log.Config
}

const envVarPrefix = "BMPSTORE"

func ParseFlags(cfg *Config, args []string) (*Config, error) {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	pgclient.ParseFlags(fs, &cfg.PgmodelCfg)
	ingestor.ParseFlags(fs, &cfg.IngestCfg)
	log.ParseFlags(fs, &cfg.LogCfg)

	fs.StringVar(&cfg.ConfigFile, "config", "config.yml", "YAML configuration file path for bmpstore.")
	fs.StringVar(&cfg.ListenAddr, "web.listen-address", ":9301", "Address to listen on for web endpoints.")
	fs.StringVar(&cfg.TelemetryPath, "web.telemetry-path", "/metrics", "Web endpoint for exposing Prometheus metrics.")
	fs.DurationVar(&cfg.HealthCheckTimeout, "web.health-check-timeout", 5*time.Second, "Timeout of the database ping done by the health endpoint.")
	fs.BoolVar(&cfg.EnableDebugAPI, "web.enable-debug-api", false, "Serve pprof profiles and the SQL debug toggle under /debug.")
	fs.BoolVar(&cfg.LogSQL, "telemetry.log.sql", false, "Log every executed statement at info level. Can be toggled at runtime through the debug API.")

	if err := util.ParseEnv(envVarPrefix, fs); err != nil {
		return nil, fmt.Errorf("error parsing env variables: %w", err)
	}

	if err := ff.Parse(fs, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(Parser),
		ff.WithAllowMissingConfigFile(true),
	); err != nil {
		return nil, fmt.Errorf("configuration error when parsing flags: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if err := pgclient.Validate(&cfg.PgmodelCfg); err != nil {
		return fmt.Errorf("error validating client configuration: %w", err)
	}
	if err := ingestor.Validate(&cfg.IngestCfg); err != nil {
		return fmt.Errorf("error validating writer configuration: %w", err)
	}
	if cfg.TelemetryPath == "" || cfg.TelemetryPath[0] != '/' {
		return fmt.Errorf("web.telemetry-path must start with /")
	}
	return nil
}
