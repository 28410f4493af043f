// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"sort"

	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

const (
	// DefaultMaxBulkRows caps the rows of one multi-row statement.
	DefaultMaxBulkRows = 5000
	// maxBindParams is the PostgreSQL limit of parameters per statement.
	maxBindParams = 65535
)

// Statement is one unit of execution produced by the Builder.
type Statement struct {
	Op   model.Opcode
	SQL  string
	Args []interface{}
	Rows int
	// MinSeq is the smallest sequence number of the requests it carries.
	MinSeq uint64
	// Requests contributing rows, in order. A request split over several
	// statements appears in each of them.
	Requests []*model.WriteRequest
}

// IsControl reports whether the statement is a transaction group marker
// carrying no SQL.
func (s *Statement) IsControl() bool {
	spec := s.Op.Spec()
	return spec != nil && spec.Control
}

// Rejected is a request that failed validation and was left out of the
// statements.
type Rejected struct {
	Req *model.WriteRequest
	Err error
}

// Builder turns a drained batch into ordered statements.
//
// Mergeable requests between two sequential requests are grouped by opcode
// and their rows concatenated in insertion order. Every sequential request
// stands alone. Statements are ordered by the smallest sequence number they
// carry, so no statement is moved across a sequential request.
type Builder struct {
	maxBulkRows int
}

func NewBuilder(maxBulkRows int) *Builder {
	if maxBulkRows <= 0 {
		maxBulkRows = DefaultMaxBulkRows
	}
	return &Builder{maxBulkRows: maxBulkRows}
}

// Build expects batch in push order.
func (b *Builder) Build(batch []*model.WriteRequest) ([]Statement, []Rejected) {
	var (
		stmts    []Statement
		rejected []Rejected
		// mergeable requests of the current segment, by opcode in order of
		// first appearance
		groupOrder []model.Opcode
		groups     = make(map[model.Opcode][]*model.WriteRequest)
	)

	flush := func() {
		for _, op := range groupOrder {
			stmts = append(stmts, b.chunk(op, groups[op])...)
			delete(groups, op)
		}
		groupOrder = groupOrder[:0]
	}

	for _, req := range batch {
		if err := req.Validate(); err != nil {
			rejected = append(rejected, Rejected{Req: req, Err: err})
			continue
		}
		if req.Op.Kind() == model.Mergeable {
			if _, ok := groups[req.Op]; !ok {
				groupOrder = append(groupOrder, req.Op)
			}
			groups[req.Op] = append(groups[req.Op], req)
			continue
		}

		flush()
		if req.Op.Spec().Control {
			stmts = append(stmts, Statement{Op: req.Op, MinSeq: req.Seq, Requests: []*model.WriteRequest{req}})
			continue
		}
		stmts = append(stmts, b.chunk(req.Op, []*model.WriteRequest{req})...)
	}
	flush()

	sort.SliceStable(stmts, func(i, j int) bool {
		return stmts[i].MinSeq < stmts[j].MinSeq
	})
	return stmts, rejected
}

// RowCap returns the most rows one statement of op may carry.
func (b *Builder) RowCap(op model.Opcode) int {
	n := maxBindParams / len(op.Spec().Columns)
	if b.maxBulkRows < n {
		n = b.maxBulkRows
	}
	return n
}

// chunk concatenates the rows of reqs into statements of at most RowCap
// rows. A row whose key already appears in the statement being filled starts
// a new statement, since one statement may not affect a row twice.
func (b *Builder) chunk(op model.Opcode, reqs []*model.WriteRequest) []Statement {
	var (
		spec   = op.Spec()
		rowCap = b.RowCap(op)
		out    []Statement
		cur    *Statement
		keys   map[model.Hash]struct{}
		left   int
	)
	for _, req := range reqs {
		left += len(req.Rows)
	}

	finish := func() {
		if cur != nil {
			cur.SQL = spec.SQL(cur.Rows)
			out = append(out, *cur)
		}
	}

	for _, req := range reqs {
		for i, row := range req.Rows {
			key := req.Keys[i]
			_, dup := keys[key]
			if cur == nil || cur.Rows >= rowCap || dup {
				finish()
				cur = &Statement{
					Op:     op,
					MinSeq: req.Seq,
					Args:   make([]interface{}, 0, len(spec.Columns)*minInt(rowCap, left)),
				}
				keys = make(map[model.Hash]struct{})
			}
			cur.Args = append(cur.Args, row...)
			cur.Rows++
			left--
			keys[key] = struct{}{}
			if n := len(cur.Requests); n == 0 || cur.Requests[n-1] != req {
				cur.Requests = append(cur.Requests, req)
			}
		}
	}
	finish()
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
