// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/routewatch/bmpstore/pkg/log"
	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
	"github.com/routewatch/bmpstore/pkg/pgmodel/metrics"
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
	"github.com/routewatch/bmpstore/pkg/pgxconn"
	"go.uber.org/atomic"
)

// State of the writer loop.
type State int32

const (
	StateIdle State = iota
	StateDraining
	StateBuilding
	StateExecuting
	StateCommitting
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateBuilding:
		return "building"
	case StateExecuting:
		return "executing"
	case StateCommitting:
		return "committing"
	case StateShuttingDown:
		return "shutting_down"
	}
	return "unknown"
}

// maxLoggedKeys bounds the keys logged per failed request.
const maxLoggedKeys = 16

// Writer is the single goroutine that owns the store session. It drains the
// queue, builds statements and runs every batch in one transaction.
//
// A failing statement rolls back the whole transaction and every request in
// it is logged as failed; nothing is retried. A connectivity failure also
// re-establishes the session before the next batch. Transaction groups opened
// with OpBeginGroup keep one transaction open across batches until the
// matching OpCommitGroup.
type Writer struct {
	conn    pgxconn.TxConn
	queue   *Queue
	builder *Builder

	maxBatchSize     int
	flushInterval    time.Duration
	statementTimeout time.Duration
	shutdownTimeout  time.Duration
	onFatal          func(error)

	state stateValue
	debug atomic.Bool
	done  chan struct{}

	// owned by the writer goroutine
	needReconnect bool
	groupDepth    int
	tx            txState
	aborted       abortedTx
}

// abortedTx remembers a rolled back transaction while the statements that
// belonged to it are still being discarded. depth counts the transaction
// group levels that were open at rollback and are not closed yet.
type abortedTx struct {
	depth int
	id    uuid.UUID
	cause error
	seen  map[*model.WriteRequest]struct{}
}

// stateValue holds a State that is read from other goroutines.
type stateValue struct {
	v atomic.Int32
}

func (s *stateValue) Load() State {
	return State(s.v.Load())
}

func (s *stateValue) Store(st State) {
	s.v.Store(int32(st))
	metrics.WriterState.Set(float64(st))
}

// txState tracks what the open transaction carries, for commit accounting
// and for logging on rollback.
type txState struct {
	id   uuid.UUID
	reqs []*model.WriteRequest
	seen map[*model.WriteRequest]struct{}
	rows map[model.Opcode]int
}

func (t *txState) reset() {
	t.id = uuid.New()
	t.reqs = nil
	t.seen = make(map[*model.WriteRequest]struct{})
	t.rows = make(map[model.Opcode]int)
}

func (t *txState) add(st *Statement) {
	for _, req := range st.Requests {
		if _, ok := t.seen[req]; ok {
			continue
		}
		t.seen[req] = struct{}{}
		t.reqs = append(t.reqs, req)
	}
	t.rows[st.Op] += st.Rows
}

func newWriter(conn pgxconn.TxConn, queue *Queue, cfg *Config, onFatal func(error)) *Writer {
	w := &Writer{
		conn:             conn,
		queue:            queue,
		builder:          NewBuilder(cfg.MaxBulkRows),
		maxBatchSize:     cfg.MaxBatchSize,
		flushInterval:    cfg.FlushInterval,
		statementTimeout: cfg.StatementTimeout,
		shutdownTimeout:  cfg.ShutdownTimeout,
		onFatal:          onFatal,
		done:             make(chan struct{}),
	}
	w.tx.reset()
	w.state.Store(StateIdle)
	return w
}

func (w *Writer) start() {
	go w.run()
}

func (w *Writer) State() State {
	return w.state.Load()
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		if w.queue.Closed() {
			w.state.Store(StateShuttingDown)
		} else {
			w.state.Store(StateIdle)
		}
		batch := w.queue.Drain(w.maxBatchSize, w.flushInterval)
		if len(batch) == 0 {
			w.state.Store(StateShuttingDown)
			w.finish()
			return
		}
		if !w.shuttingDown() {
			w.state.Store(StateDraining)
		}
		w.processBatch(batch)
	}
}

func (w *Writer) processBatch(batch []*model.WriteRequest) {
	start := time.Now()
	metrics.BatchRequests.Observe(float64(len(batch)))
	defer func() {
		if w.aborted.depth == 0 {
			w.aborted = abortedTx{}
		}
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	if !w.shuttingDown() {
		w.state.Store(StateBuilding)
	}
	stmts, rejected := w.builder.Build(batch)
	for _, r := range rejected {
		log.Error("msg", "dropping malformed write request", "op", r.Req.Op, "seq", r.Req.Seq,
			"rows", len(r.Req.Rows), "keys", r.Req.KeyList(maxLoggedKeys), "err", r.Err)
		metrics.FailedRequests.WithLabelValues(r.Req.Op.String(), "payload").Inc()
	}

	if w.needReconnect {
		if err := w.reconnect(); err != nil {
			if w.aborted.depth == 0 {
				w.aborted = abortedTx{id: w.tx.id, cause: err}
			}
			w.discardAll(stmts)
			return
		}
	}

	if !w.shuttingDown() {
		w.state.Store(StateExecuting)
	}
	for i := range stmts {
		st := &stmts[i]
		if w.aborted.depth > 0 {
			w.discard(st)
			continue
		}
		switch st.Op {
		case model.OpBeginGroup:
			w.groupDepth++
			continue
		case model.OpCommitGroup:
			if w.groupDepth == 0 {
				log.Warn("msg", "transaction commit without a matching start, ignoring", "seq", st.MinSeq)
				continue
			}
			w.groupDepth--
			if w.groupDepth == 0 {
				if err := w.commit(); err != nil {
					w.discardAll(stmts[i+1:])
					return
				}
			}
			continue
		}

		if err := w.exec(st); err != nil {
			w.rollback(err)
			w.discardAll(stmts[i+1:])
			return
		}
	}

	if w.groupDepth == 0 {
		if err := w.commit(); err != nil {
			return
		}
	}
}

func (w *Writer) exec(st *Statement) error {
	if !w.conn.InTx() {
		w.tx.reset()
		if err := w.conn.Begin(context.Background()); err != nil {
			w.tx.add(st)
			return err
		}
	}
	w.tx.add(st)

	ctx := context.Background()
	if w.statementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.statementTimeout)
		defer cancel()
	}

	start := time.Now()
	_, err := w.conn.Exec(ctx, st.SQL, st.Args...)
	if w.debug.Load() {
		log.Info("msg", "executed statement", "batch", w.tx.id, "op", st.Op, "rows", st.Rows,
			"duration", time.Since(start), "sql", st.SQL, "err", err)
	}
	if err != nil {
		log.Error("msg", "statement failed", "batch", w.tx.id, "op", st.Op, "rows", st.Rows,
			"seq", st.MinSeq, "class", classOf(err), "err", err)
		return err
	}
	metrics.Statements.WithLabelValues(st.Op.String()).Inc()
	metrics.RowsPerStatement.WithLabelValues(st.Op.String()).Observe(float64(st.Rows))
	return nil
}

// commit ends the open transaction, if any. On failure the transaction's
// requests are logged as failed.
func (w *Writer) commit() error {
	if !w.conn.InTx() {
		return nil
	}
	if !w.shuttingDown() {
		w.state.Store(StateCommitting)
	}
	if err := w.conn.Commit(context.Background()); err != nil {
		log.Error("msg", "commit failed", "batch", w.tx.id, "class", classOf(err), "err", err)
		w.rollback(err)
		return err
	}
	for op, rows := range w.tx.rows {
		metrics.RowsWritten.WithLabelValues(op.String()).Add(float64(rows))
	}
	if w.debug.Load() {
		log.Info("msg", "committed transaction", "batch", w.tx.id, "requests", len(w.tx.reqs))
	}
	w.tx.reset()
	return nil
}

// rollback aborts the open transaction and logs all of its requests as
// failed. An open transaction group is abandoned with it and whatever the
// group still carries is discarded up to its matching commit.
func (w *Writer) rollback(cause error) {
	if err := w.conn.Rollback(context.Background()); err != nil {
		log.Warn("msg", "rollback failed", "batch", w.tx.id, "err", err)
	}
	metrics.Rollbacks.Inc()
	w.aborted = abortedTx{
		depth: w.groupDepth,
		id:    w.tx.id,
		cause: cause,
		seen:  w.tx.seen,
	}
	if w.groupDepth > 0 {
		log.Error("msg", "rolled back open transaction group", "batch", w.tx.id, "depth", w.groupDepth)
		w.groupDepth = 0
	}
	w.logFailed(w.tx.id, w.tx.reqs, cause)
	w.tx.reset()
	if errors.IsConnectivity(cause) {
		w.needReconnect = true
		_ = w.reconnect()
	}
}

// discardAll drops statements that will not run after a failure in their
// batch. Groups they open are aborted as a whole.
func (w *Writer) discardAll(stmts []Statement) {
	for i := range stmts {
		w.discard(&stmts[i])
	}
}

// discard logs the requests of st as failed with the cause of the aborted
// transaction, each request once.
func (w *Writer) discard(st *Statement) {
	switch st.Op {
	case model.OpBeginGroup:
		w.aborted.depth++
		return
	case model.OpCommitGroup:
		if w.aborted.depth == 0 {
			return
		}
		w.aborted.depth--
		if w.aborted.depth == 0 {
			log.Warn("msg", "discarded the rest of a rolled back transaction group", "batch", w.aborted.id, "seq", st.MinSeq)
		}
		return
	}
	if w.aborted.seen == nil {
		w.aborted.seen = make(map[*model.WriteRequest]struct{})
	}
	var reqs []*model.WriteRequest
	for _, req := range st.Requests {
		if _, ok := w.aborted.seen[req]; ok {
			continue
		}
		w.aborted.seen[req] = struct{}{}
		reqs = append(reqs, req)
	}
	w.logFailed(w.aborted.id, reqs, w.aborted.cause)
}

func (w *Writer) logFailed(id uuid.UUID, reqs []*model.WriteRequest, cause error) {
	class := classOf(cause)
	for _, req := range reqs {
		log.Error("msg", "write request failed", "batch", id, "op", req.Op, "seq", req.Seq,
			"rows", len(req.Rows), "keys", req.KeyList(maxLoggedKeys), "class", class, "cause", cause)
		metrics.FailedRequests.WithLabelValues(req.Op.String(), class).Inc()
	}
}

func (w *Writer) reconnect() error {
	err := w.conn.Reconnect(context.Background())
	if err != nil {
		metrics.Reconnects.WithLabelValues("failure").Inc()
		log.Error("msg", "could not reconnect to the database", "err", err)
		if w.onFatal != nil {
			w.onFatal(err)
		}
		return err
	}
	metrics.Reconnects.WithLabelValues("success").Inc()
	w.needReconnect = false
	return nil
}

// finish commits what is left open after the final drain.
func (w *Writer) finish() {
	if w.aborted.depth > 0 {
		log.Warn("msg", "rolled back transaction group was never closed", "batch", w.aborted.id, "depth", w.aborted.depth)
		w.aborted = abortedTx{}
	}
	if w.groupDepth > 0 {
		log.Warn("msg", "committing transaction group left open at shutdown", "batch", w.tx.id, "depth", w.groupDepth)
		w.groupDepth = 0
	}
	_ = w.commit()
}

func (w *Writer) shuttingDown() bool {
	return w.state.Load() == StateShuttingDown
}

// Close stops accepting requests and waits for the writer to write out the
// queue, at most the shutdown timeout.
func (w *Writer) Close() {
	w.queue.Close()
	var timeout <-chan time.Time
	if w.shutdownTimeout > 0 {
		timer := time.NewTimer(w.shutdownTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-w.done:
	case <-timeout:
		log.Warn("msg", "forced writer shutdown due to timeout, some requests might not be persisted",
			"not_persisted_req_count", w.queue.Len(), "state", w.State())
	}
}

func classOf(err error) string {
	if errors.IsConnectivity(err) {
		return errors.ClassConnectivity.String()
	}
	return errors.ClassStatement.String()
}
