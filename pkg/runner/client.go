// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package runner

import (
	"github.com/routewatch/bmpstore/pkg/log"
	"github.com/routewatch/bmpstore/pkg/pgclient"
	"github.com/routewatch/bmpstore/pkg/pgmodel/ingestor"
)

// CreateClient connects to the database and starts the writer. onFatal is
// called once if the writer gives up on the database.
func CreateClient(cfg *Config, onFatal func(error)) (*pgclient.Client, error) {
	client, err := pgclient.NewClient(&cfg.PgmodelCfg, &cfg.IngestCfg, ingestor.WithFatalHandler(onFatal))
	if err != nil {
		return nil, err
	}
	if cfg.LogSQL {
		log.Info("msg", "statement logging enabled")
	}
	client.SetDebug(cfg.LogSQL)
	return client, nil
}
