// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package pgclient

import (
	"context"
	"time"

	"github.com/grafana/regexp"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"github.com/routewatch/bmpstore/pkg/log"
	"github.com/routewatch/bmpstore/pkg/pgmodel/ingestor"
	"github.com/routewatch/bmpstore/pkg/pgxconn"
	"github.com/routewatch/bmpstore/pkg/util"
)

var passwordRe = regexp.MustCompile("password='(.+?)'")

// Client owns the database session and the ingestor writing through it.
type Client struct {
	conn     pgxconn.TxConn
	ingestor *ingestor.DBIngestor
}

// NewClient connects to the database, retrying up to DbConnectRetries
// times, and starts the ingestor on the new session.
func NewClient(cfg *Config, ingestCfg *ingestor.Config, opts ...ingestor.Option) (*Client, error) {
	connStr, err := cfg.GetConnectionStr()
	if err != nil {
		return nil, err
	}
	log.Info("msg", "connecting to the database", "conn", passwordRe.ReplaceAllLiteralString(connStr, "password='****'"))

	connect := cfg.connector(connStr)
	var conn *pgx.Conn
	err = retry(context.Background(), cfg.DbConnectRetries, cfg.Reconnect.MinBackoff, cfg.Reconnect.MaxBackoff,
		func(ctx context.Context) error {
			var err error
			conn, err = connect(ctx)
			connectAttempts.WithLabelValues(outcome(err)).Inc()
			return err
		})
	if err != nil {
		return nil, errors.WithMessage(err, "could not connect to the database")
	}

	client, err := NewClientWithConn(pgxconn.NewTxConn(conn, connect, cfg.Reconnect), ingestCfg, opts...)
	if err != nil {
		_ = conn.Close(context.Background())
		return nil, err
	}
	return client, nil
}

// NewClientWithConn starts the ingestor on an established session.
func NewClientWithConn(conn pgxconn.TxConn, ingestCfg *ingestor.Config, opts ...ingestor.Option) (*Client, error) {
	ing, err := ingestor.NewPgxIngestor(conn, ingestCfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating ingestor")
	}
	return &Client{conn: conn, ingestor: ing}, nil
}

// connector opens sessions with the schema as search_path, refusing servers
// that are too old.
func (cfg *Config) connector(connStr string) pgxconn.Connector {
	return func(ctx context.Context) (*pgx.Conn, error) {
		pgCfg, err := pgx.ParseConfig(connStr)
		if err != nil {
			return nil, errors.Wrap(err, "parsing connection string")
		}
		if cfg.Schema != "" {
			pgCfg.RuntimeParams["search_path"] = cfg.Schema
		}
		if cfg.AppName != "" {
			pgCfg.RuntimeParams["application_name"] = cfg.AppName
		}
		conn, err := pgx.ConnectConfig(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		if err := checkServerVersion(conn.PgConn().ParameterStatus("server_version")); err != nil {
			_ = conn.Close(ctx)
			return nil, err
		}
		return conn, nil
	}
}

// retry runs op until it succeeds, at most retries+1 times, backing off
// exponentially between attempts.
func retry(ctx context.Context, retries int, minBackoff, maxBackoff time.Duration, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}
		delay := util.Backoff(attempt, minBackoff, maxBackoff)
		log.Warn("msg", "database connection attempt failed, retrying", "attempt", attempt+1, "delay", delay, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Inserter returns the entity API of the client.
func (c *Client) Inserter() ingestor.DBInserter {
	return c.ingestor
}

func (c *Client) Ingestor() *ingestor.DBIngestor {
	return c.ingestor
}

// SetDebug switches statement logging of the writer.
func (c *Client) SetDebug(enabled bool) {
	if enabled {
		c.ingestor.EnableDebug()
	} else {
		c.ingestor.DisableDebug()
	}
}

// HealthCheck pings the database.
func (c *Client) HealthCheck(ctx context.Context) error {
	err := c.conn.Ping(ctx)
	healthChecks.WithLabelValues(outcome(err)).Inc()
	return err
}

// Close flushes the ingestor and closes the session. The session stays open
// if the writer did not finish within its shutdown timeout.
func (c *Client) Close() {
	c.ingestor.Close()
	select {
	case <-c.ingestor.Done():
		c.conn.Close()
	default:
		log.Warn("msg", "writer still running, leaving the database session open")
	}
}
