// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
)

// WriteRequest is the unit moved through the write queue. Once pushed the
// request is owned by the queue and must not be mutated by the producer.
type WriteRequest struct {
	Op Opcode
	// Rows hold one value per OpSpec column.
	Rows [][]interface{}
	// Keys hold the conflict key of every row.
	Keys []Hash
	// Seq is assigned by the queue at push time.
	Seq        uint64
	EnqueuedAt time.Time
}

// NewWriteRequest creates a single row request.
func NewWriteRequest(op Opcode, key Hash, row []interface{}) *WriteRequest {
	return &WriteRequest{Op: op, Rows: [][]interface{}{row}, Keys: []Hash{key}}
}

// Append adds a row to the request.
func (r *WriteRequest) Append(key Hash, row []interface{}) {
	r.Rows = append(r.Rows, row)
	r.Keys = append(r.Keys, key)
}

// Len returns the number of rows.
func (r *WriteRequest) Len() int {
	return len(r.Rows)
}

// Validate checks the payload against the opcode's column layout.
func (r *WriteRequest) Validate() error {
	spec := r.Op.Spec()
	if spec == nil || r.Op == OpInvalid {
		return fmt.Errorf("%w: %d", errors.ErrUnknownOpcode, r.Op)
	}
	if spec.Control {
		return nil
	}
	if len(r.Rows) == 0 {
		return errors.ErrEmptyPayload
	}
	if len(r.Keys) != len(r.Rows) {
		return fmt.Errorf("%w: %d keys for %d rows", errors.ErrKeyCount, len(r.Keys), len(r.Rows))
	}
	for i, row := range r.Rows {
		if len(row) != len(spec.Columns) {
			return fmt.Errorf("%w: row %d of %s has %d values, want %d",
				errors.ErrColumnArity, i, spec.Name, len(row), len(spec.Columns))
		}
	}
	return nil
}

func (r *WriteRequest) String() string {
	return fmt.Sprintf("%s seq=%d rows=%d", r.Op, r.Seq, len(r.Rows))
}

// KeyList renders the keys for logging as one comma separated value, at
// most limit of them.
func (r *WriteRequest) KeyList(limit int) string {
	n := len(r.Keys)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = r.Keys[i].String()
	}
	return strings.Join(out, ",")
}
