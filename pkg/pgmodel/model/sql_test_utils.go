// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package model

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgconn"
	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
)

// Events recorded by TxRecorder besides statement SQL.
const (
	EventBegin     = "BEGIN"
	EventCommit    = "COMMIT"
	EventRollback  = "ROLLBACK"
	EventReconnect = "RECONNECT"
)

// SqlStatement is one statement seen by TxRecorder.
type SqlStatement struct {
	Sql  string
	Args []interface{}
}

// TxRecorder is an in-memory store session for tests. It records every call
// and keeps statements of an open transaction apart from committed ones, so a
// rollback leaves no visible effect.
type TxRecorder struct {
	lock      sync.Mutex
	events    []string
	pending   []SqlStatement
	committed []SqlStatement
	inTx      bool
	execs     int
	closed    bool

	// OnExec, when set, runs before every Exec; n counts Exec calls from 0.
	// A returned error fails the statement.
	OnExec func(n int, sql string) error
	// OnReconnect, when set, decides the outcome of Reconnect.
	OnReconnect func(n int) error
	reconnects  int
}

func NewTxRecorder() *TxRecorder {
	return &TxRecorder{}
}

func (r *TxRecorder) Begin(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.inTx {
		return errors.NewStoreError(errors.ErrTxInProgress)
	}
	r.inTx = true
	r.events = append(r.events, EventBegin)
	return nil
}

func (r *TxRecorder) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	r.lock.Lock()
	n := r.execs
	r.execs++
	hook := r.OnExec
	r.lock.Unlock()

	// the hook runs unlocked so that it may block
	if hook != nil {
		if err := hook(n, sql); err != nil {
			r.lock.Lock()
			r.events = append(r.events, normalize(sql))
			r.lock.Unlock()
			return nil, errors.NewStoreError(err)
		}
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	st := SqlStatement{Sql: normalize(sql), Args: args}
	r.events = append(r.events, st.Sql)
	if r.inTx {
		r.pending = append(r.pending, st)
	} else {
		r.committed = append(r.committed, st)
	}
	return pgconn.CommandTag("INSERT 0 1"), nil
}

func (r *TxRecorder) Commit(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.inTx {
		return errors.NewStoreError(errors.ErrNoTransaction)
	}
	r.inTx = false
	r.committed = append(r.committed, r.pending...)
	r.pending = nil
	r.events = append(r.events, EventCommit)
	return nil
}

func (r *TxRecorder) Rollback(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.inTx {
		return nil
	}
	r.inTx = false
	r.pending = nil
	r.events = append(r.events, EventRollback)
	return nil
}

func (r *TxRecorder) InTx() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.inTx
}

func (r *TxRecorder) Reconnect(ctx context.Context) error {
	r.lock.Lock()
	n := r.reconnects
	r.reconnects++
	hook := r.OnReconnect
	r.inTx = false
	r.pending = nil
	r.events = append(r.events, EventReconnect)
	r.lock.Unlock()
	if hook != nil {
		return hook(n)
	}
	return nil
}

func (r *TxRecorder) Ping(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return errors.NewStoreError(errors.ErrNotConnected)
	}
	return nil
}

func (r *TxRecorder) Close() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.closed = true
}

// Events returns BEGIN/COMMIT/ROLLBACK/RECONNECT markers and statement SQL in
// call order.
func (r *TxRecorder) Events() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.events...)
}

// Committed returns the statements visible in the store.
func (r *TxRecorder) Committed() []SqlStatement {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]SqlStatement(nil), r.committed...)
}

// CommittedRows counts committed rows of statements touching table.
func (r *TxRecorder) CommittedRows(table string, numColumns int) int {
	rows := 0
	for _, st := range r.Committed() {
		if strings.Contains(st.Sql, " "+table+" ") {
			rows += len(st.Args) / numColumns
		}
	}
	return rows
}

func (r *TxRecorder) Reconnects() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.reconnects
}

func (r *TxRecorder) IsClosed() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.closed
}

var space = regexp.MustCompile(`\s+`)

func normalize(sql string) string {
	return space.ReplaceAllString(sql, " ")
}
