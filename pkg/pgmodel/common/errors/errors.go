// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

var (
	ErrEmptyPayload    = fmt.Errorf("write request has no rows")
	ErrColumnArity     = fmt.Errorf("row length does not match the column count")
	ErrKeyCount        = fmt.Errorf("number of keys does not match the number of rows")
	ErrUnknownOpcode   = fmt.Errorf("unknown opcode")
	ErrQueueFull       = fmt.Errorf("write queue is full")
	ErrQueueClosed     = fmt.Errorf("write queue is closed")
	ErrNotConnected    = fmt.Errorf("not connected to the database")
	ErrNoTransaction   = fmt.Errorf("no transaction in progress")
	ErrTxInProgress    = fmt.Errorf("transaction already in progress")
	ErrReconnectBudget = fmt.Errorf("reconnect retry budget exhausted")
)

// Class tells the writer how to react to a store failure.
type Class int

const (
	// ClassStatement errors are local to one statement: constraint
	// violations, syntax errors, bad data.
	ClassStatement Class = iota
	// ClassConnectivity errors mean the session is gone and must be
	// re-established before the next batch.
	ClassConnectivity
)

func (c Class) String() string {
	switch c {
	case ClassConnectivity:
		return "connectivity"
	default:
		return "statement"
	}
}

// StoreError is an error returned by the store, tagged with its class.
type StoreError struct {
	Class Class
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Class, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError classifies err and wraps it. A nil err stays nil.
func NewStoreError(err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if goerrors.As(err, &se) {
		return err
	}
	return &StoreError{Class: Classify(err), Err: err}
}

// IsConnectivity reports whether err is (or wraps) a connectivity failure.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	var se *StoreError
	if goerrors.As(err, &se) {
		return se.Class == ClassConnectivity
	}
	return Classify(err) == ClassConnectivity
}

// Classify decides the class of a raw driver error.
func Classify(err error) Class {
	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) {
			return ClassConnectivity
		}
		return ClassStatement
	}

	var netErr net.Error
	switch {
	case goerrors.Is(err, ErrNotConnected),
		goerrors.Is(err, io.EOF),
		goerrors.Is(err, io.ErrUnexpectedEOF),
		goerrors.Is(err, context.DeadlineExceeded),
		goerrors.As(err, &netErr),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err):
		return ClassConnectivity
	}
	return ClassStatement
}
