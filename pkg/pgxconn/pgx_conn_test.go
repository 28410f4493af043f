// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package pgxconn

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
	"github.com/stretchr/testify/require"
)

func TestNotConnected(t *testing.T) {
	c := NewTxConn(nil, nil, ReconnectConfig{})
	defer c.Close()
	ctx := context.Background()

	err := c.Begin(ctx)
	require.True(t, goerrors.Is(err, errors.ErrNotConnected))
	require.True(t, errors.IsConnectivity(err))

	_, err = c.Exec(ctx, "SELECT 1")
	require.True(t, goerrors.Is(err, errors.ErrNotConnected))

	require.True(t, goerrors.Is(c.Commit(ctx), errors.ErrNoTransaction))
	require.NoError(t, c.Rollback(ctx))
	require.False(t, c.InTx())
	require.True(t, errors.IsConnectivity(c.Ping(ctx)))
}

func TestReconnectBudget(t *testing.T) {
	calls := 0
	connect := func(ctx context.Context) (*pgx.Conn, error) {
		calls++
		return nil, fmt.Errorf("connection refused")
	}
	c := NewTxConn(nil, connect, ReconnectConfig{Retries: 2, MinBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond})

	err := c.Reconnect(context.Background())
	require.Error(t, err)
	require.True(t, goerrors.Is(err, errors.ErrReconnectBudget))
	require.True(t, errors.IsConnectivity(err))
	require.Equal(t, 3, calls)
}

func TestReconnectCanceled(t *testing.T) {
	connect := func(ctx context.Context) (*pgx.Conn, error) {
		return nil, fmt.Errorf("connection refused")
	}
	c := NewTxConn(nil, connect, ReconnectConfig{Retries: 10, MinBackoff: time.Hour, MaxBackoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Reconnect(ctx)
	require.True(t, goerrors.Is(err, context.Canceled))
}

func TestFilterIndentChars(t *testing.T) {
	require.Equal(t, "SELECT a FROM b", filterIndentChars("SELECT a\n\tFROM \"b\""))
	require.Equal(t, "abc...", truncate("abcdef", 3))
	require.Equal(t, "ab", truncate("ab", 3))
}
