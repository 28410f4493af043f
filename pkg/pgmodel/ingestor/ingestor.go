// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/routewatch/bmpstore/pkg/log"
	"github.com/routewatch/bmpstore/pkg/pgmodel/cache"
	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
	"github.com/routewatch/bmpstore/pkg/pgmodel/metrics"
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
	"github.com/routewatch/bmpstore/pkg/pgxconn"
	"go.uber.org/atomic"
)

// Resolver looks up host names of an address. *net.Resolver implements it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// DBIngestor turns collector events into write requests and hands them to
// the background writer.
type DBIngestor struct {
	cfg      Config
	queue    *Queue
	writer   *Writer
	routers  *cache.Freshness
	peers    *cache.Freshness
	resolver Resolver
	closed   *atomic.Bool
}

var _ DBInserter = (*DBIngestor)(nil)

// Option customizes a DBIngestor.
type Option func(*DBIngestor)

// WithResolver replaces the reverse DNS resolver used for router names.
func WithResolver(r Resolver) Option {
	return func(i *DBIngestor) {
		i.resolver = r
	}
}

// WithFatalHandler sets the callback invoked when the writer cannot
// reconnect to the database within the retry budget.
func WithFatalHandler(f func(error)) Option {
	return func(i *DBIngestor) {
		i.writer.onFatal = f
	}
}

// WithClock replaces the time source of the freshness caches.
func WithClock(now func() time.Time) Option {
	return func(i *DBIngestor) {
		i.routers.WithClock(now)
		i.peers.WithClock(now)
	}
}

// NewPgxIngestor starts the writer on conn. The writer owns conn until
// Close returns.
func NewPgxIngestor(conn pgxconn.TxConn, cfg *Config, opts ...Option) (*DBIngestor, error) {
	i, err := newDBIngestor(conn, cfg, opts...)
	if err != nil {
		return nil, err
	}
	i.writer.start()
	return i, nil
}

func newDBIngestor(conn pgxconn.TxConn, cfg *Config, opts ...Option) (*DBIngestor, error) {
	if cfg == nil {
		c := DefaultConfig
		cfg = &c
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	queue := NewQueue(cfg.QueueCapacity, Overflow(cfg.QueueOverflow))
	i := &DBIngestor{
		cfg:      *cfg,
		queue:    queue,
		writer:   newWriter(conn, queue, cfg, nil),
		routers:  cache.NewFreshness("router", cfg.Freshness.Size),
		peers:    cache.NewFreshness("peer", cfg.Freshness.Size),
		resolver: net.DefaultResolver,
		closed:   atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// push enqueues the requests together. A failure is logged with the keys of
// every request so that the write can be reconciled later.
func (i *DBIngestor) push(reqs ...*model.WriteRequest) error {
	err := i.queue.Push(reqs...)
	if err == nil {
		return nil
	}
	reason := "full"
	if err == errors.ErrQueueClosed {
		reason = "closed"
	}
	for _, req := range reqs {
		metrics.QueueRejected.WithLabelValues(req.Op.String(), reason).Inc()
		log.WarnRateLimited("msg", "write request dropped", "op", req.Op, "rows", len(req.Rows),
			"keys", req.KeyList(maxLoggedKeys), "err", err)
	}
	return err
}

func (i *DBIngestor) StartTransaction() error {
	return i.push(&model.WriteRequest{Op: model.OpBeginGroup})
}

func (i *DBIngestor) CommitTransaction() error {
	return i.push(&model.WriteRequest{Op: model.OpCommitGroup})
}

// EnableDebug logs every executed statement at info level.
func (i *DBIngestor) EnableDebug() {
	i.writer.debug.Store(true)
}

func (i *DBIngestor) DisableDebug() {
	i.writer.debug.Store(false)
}

// State returns the current state of the writer loop.
func (i *DBIngestor) State() State {
	return i.writer.State()
}

// QueueLen returns the number of requests waiting for the writer.
func (i *DBIngestor) QueueLen() int {
	return i.queue.Len()
}

// Close stops accepting writes and waits for queued requests to be written.
func (i *DBIngestor) Close() {
	if i.closed.Swap(true) {
		return
	}
	i.writer.Close()
}

// Done is closed once the writer has exited.
func (i *DBIngestor) Done() <-chan struct{} {
	return i.writer.done
}

// resolveName returns the first reverse DNS name of ip without the trailing
// dot, or "" when lookups are disabled or fail.
func (i *DBIngestor) resolveName(ip net.IP) string {
	if !i.cfg.ResolveNames || i.resolver == nil || ip == nil {
		return ""
	}
	ctx := context.Background()
	if i.cfg.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.ResolveTimeout)
		defer cancel()
	}
	names, err := i.resolver.LookupAddr(ctx, ip.String())
	if err != nil || len(names) == 0 {
		log.Debug("msg", "could not resolve router name", "ip", ip, "err", err)
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}
