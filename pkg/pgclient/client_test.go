// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package pgclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/routewatch/bmpstore/pkg/pgmodel/ingestor"
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
	"github.com/stretchr/testify/require"
)

func testIngestConfig() *ingestor.Config {
	cfg := ingestor.DefaultConfig
	cfg.FlushInterval = 0
	cfg.ResolveNames = false
	return &cfg
}

func TestClientWritesAndCloses(t *testing.T) {
	rec := model.NewTxRecorder()
	client, err := NewClientWithConn(rec, testIngestConfig())
	require.NoError(t, err)

	require.NoError(t, client.HealthCheck(context.Background()))
	require.NoError(t, client.Inserter().AddRib([]model.Rib{{PathID: 1}, {PathID: 2}}))
	client.Close()

	require.True(t, rec.IsClosed())
	require.Len(t, rec.Committed(), 1)
	require.Error(t, client.HealthCheck(context.Background()))
}

func TestClientInvalidIngestConfig(t *testing.T) {
	cfg := testIngestConfig()
	cfg.MaxBatchSize = 0
	_, err := NewClientWithConn(model.NewTxRecorder(), cfg)
	require.Error(t, err)
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, 2*time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	calls = 0
	err = retry(context.Background(), 2, time.Millisecond, time.Millisecond, func(context.Context) error {
		calls++
		return fmt.Errorf("connection refused")
	})
	require.EqualError(t, err, "connection refused")
	require.Equal(t, 3, calls)

	calls = 0
	err = retry(context.Background(), 0, time.Millisecond, time.Millisecond, func(context.Context) error {
		calls++
		return fmt.Errorf("connection refused")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, 5, time.Hour, time.Hour, func(context.Context) error {
		return fmt.Errorf("connection refused")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConnectorFailure(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.DbConnectionTimeout = time.Second
	connStr, err := cfg.GetConnectionStr()
	require.NoError(t, err)

	// nothing listens on port 1
	_, err = cfg.connector(connStr)(context.Background())
	require.Error(t, err)

	_, err = cfg.connector("host=%%%")(context.Background())
	require.Error(t, err)
}
