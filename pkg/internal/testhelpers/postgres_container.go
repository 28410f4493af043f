// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license

package testhelpers

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/routewatch/bmpstore/pkg/pgclient"
	"github.com/routewatch/bmpstore/pkg/pgxconn"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DefaultImage = "postgres:14-alpine"
	DefaultDB    = "postgres"

	pgUser     = "postgres"
	pgPassword = "password"
)

var pgPort nat.Port = "5432/tcp"

//go:embed schema.sql
var schemaDDL string

// PGContainer is a running PostgreSQL server.
type PGContainer struct {
	testcontainers.Container
	Host string
	Port int

	printLogs bool
}

// StartPGContainer starts image and waits until it accepts connections.
func StartPGContainer(ctx context.Context, image string, printLogs bool) (*PGContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{string(pgPort)},
		WaitingFor: wait.ForSQL(pgPort, "pgx", func(port nat.Port) string {
			return fmt.Sprintf("dbname=%s password=%s user=%s host=127.0.0.1 port=%s", DefaultDB, pgPassword, pgUser, port.Port())
		}).Timeout(120 * time.Second),
		Env: map[string]string{
			"POSTGRES_PASSWORD": pgPassword,
		},
		Cmd:        []string{"-c", "max_connections=100", "-c", "log_statement=all"},
		SkipReaper: false, /* switch to true not to kill docker container */
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          false,
	})
	if err != nil {
		return nil, err
	}

	if printLogs {
		container.FollowOutput(stdoutLogConsumer{"postgres"})
	}

	if err = container.Start(ctx); err != nil {
		PrintContainerLogs(container)
		return nil, err
	}

	if printLogs {
		if err = container.StartLogProducer(ctx); err != nil {
			StopContainer(ctx, container, false)
			return nil, fmt.Errorf("setting up logger: %w", err)
		}
	}

	c := &PGContainer{Container: container, printLogs: printLogs}
	if c.Host, err = container.Host(ctx); err != nil {
		c.Close()
		return nil, err
	}
	port, err := container.MappedPort(ctx, pgPort)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Port = port.Int()
	return c, nil
}

func (c *PGContainer) Close() {
	StopContainer(context.Background(), c.Container, c.printLogs)
}

// ConnectURL is the URL of dbName as the superuser.
func (c *PGContainer) ConnectURL(dbName string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", pgUser, pgPassword, c.Host, c.Port, dbName)
}

// ClientConfig returns a client configuration writing to schemaName of the
// default database.
func (c *PGContainer) ClientConfig(schemaName string) pgclient.Config {
	return pgclient.Config{
		Host:                c.Host,
		Port:                c.Port,
		User:                pgUser,
		Password:            pgPassword,
		Database:            DefaultDB,
		SslMode:             "disable",
		DbUri:               pgclient.DefaultDBUri,
		DbConnectionTimeout: 10 * time.Second,
		Schema:              schemaName,
		AppName:             "bmpstore-test",
		Reconnect: pgxconn.ReconnectConfig{
			Retries:    2,
			MinBackoff: 100 * time.Millisecond,
			MaxBackoff: time.Second,
		},
	}
}

// CreateSchema creates schemaName holding the tables the ingestor writes.
func CreateSchema(ctx context.Context, conn *pgx.Conn, schemaName string) error {
	ident := pgx.Identifier{schemaName}.Sanitize()
	if _, err := conn.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		return err
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err = tx.Exec(ctx, "SET LOCAL search_path TO "+ident); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return tx.Commit(ctx)
}
