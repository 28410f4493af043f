// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package pgxconn

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/routewatch/bmpstore/pkg/log"
	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
	"github.com/routewatch/bmpstore/pkg/util"
)

// TxConn is the store session owned by the writer. At most one transaction
// is open at a time. All returned errors are *errors.StoreError.
type TxConn interface {
	Begin(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	InTx() bool
	// Reconnect drops the current session, including any open transaction,
	// and establishes a new one.
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

// Connector opens a new store session.
type Connector func(ctx context.Context) (*pgx.Conn, error)

// ReconnectConfig bounds reconnect attempts.
type ReconnectConfig struct {
	Retries    int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// NewTxConn wraps an established connection. conn may be nil, in which case
// the first Reconnect opens the session.
func NewTxConn(conn *pgx.Conn, connect Connector, cfg ReconnectConfig) TxConn {
	return &connImpl{conn: conn, connect: connect, cfg: cfg}
}

type connImpl struct {
	// guards conn and tx against Ping from the health check
	lock    sync.Mutex
	conn    *pgx.Conn
	tx      pgx.Tx
	connect Connector
	cfg     ReconnectConfig
}

func (p *connImpl) Begin(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.conn == nil {
		return errors.NewStoreError(errors.ErrNotConnected)
	}
	if p.tx != nil {
		return errors.NewStoreError(errors.ErrTxInProgress)
	}
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return errors.NewStoreError(err)
	}
	p.tx = tx
	return nil
}

func (p *connImpl) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.conn == nil {
		return nil, errors.NewStoreError(errors.ErrNotConnected)
	}
	defer logQueryStats(sql, time.Now(), len(args))()
	var (
		tag pgconn.CommandTag
		err error
	)
	if p.tx != nil {
		tag, err = p.tx.Exec(ctx, sql, args...)
	} else {
		tag, err = p.conn.Exec(ctx, sql, args...)
	}
	return tag, errors.NewStoreError(err)
}

func (p *connImpl) Commit(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.tx == nil {
		return errors.NewStoreError(errors.ErrNoTransaction)
	}
	tx := p.tx
	p.tx = nil
	return errors.NewStoreError(tx.Commit(ctx))
}

func (p *connImpl) Rollback(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	err := tx.Rollback(ctx)
	if err == pgx.ErrTxClosed {
		return nil
	}
	return errors.NewStoreError(err)
}

func (p *connImpl) InTx() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.tx != nil
}

func (p *connImpl) Reconnect(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.dropLocked()

	var lastErr error
	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := util.Backoff(attempt-1, p.cfg.MinBackoff, p.cfg.MaxBackoff)
			log.Warn("msg", "reconnect to the database failed, retrying", "attempt", attempt, "delay", delay, "err", lastErr)
			select {
			case <-ctx.Done():
				return errors.NewStoreError(ctx.Err())
			case <-time.After(delay):
			}
		}
		conn, err := p.connect(ctx)
		if err == nil {
			p.conn = conn
			log.Info("msg", "reconnected to the database", "attempts", attempt+1)
			return nil
		}
		lastErr = err
	}
	return &errors.StoreError{
		Class: errors.ClassConnectivity,
		Err:   fmt.Errorf("%w after %d attempts: %v", errors.ErrReconnectBudget, p.cfg.Retries+1, lastErr),
	}
}

func (p *connImpl) Ping(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.conn == nil {
		return errors.NewStoreError(errors.ErrNotConnected)
	}
	return errors.NewStoreError(p.conn.Ping(ctx))
}

func (p *connImpl) Close() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.dropLocked()
}

func (p *connImpl) dropLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if p.tx != nil {
		_ = p.tx.Rollback(ctx)
		p.tx = nil
	}
	if p.conn != nil {
		_ = p.conn.Close(ctx)
		p.conn = nil
	}
}

// calc SQL statement execution time
func logQueryStats(sql string, startTime time.Time, numArgs int) func() {
	return func() {
		log.Debug("msg", "SQL statement timing", "statement", truncate(filterIndentChars(sql), 200), "args", numArgs, "time", time.Since(startTime))
	}
}

// filters out indentation characters from the
// SQL query for better query logging
func filterIndentChars(query string) string {
	dropChars := []string{"\n", "\t", "\""}
	query = strings.ReplaceAll(query, "\n\t", " ")
	for _, c := range dropChars {
		query = strings.ReplaceAll(query, c, "")
	}

	return query
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
