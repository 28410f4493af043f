// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"flag"
	"fmt"
	"time"

	"github.com/routewatch/bmpstore/pkg/pgmodel/cache"
)

const (
	DefaultMaxBatchSize    = 20000
	DefaultFlushInterval   = 100 * time.Millisecond
	DefaultQueueCapacity   = 1000000
	DefaultShutdownTimeout = 30 * time.Second
	DefaultResolveTimeout  = 2 * time.Second
)

type Config struct {
	MaxBulkRows      int
	MaxBatchSize     int
	FlushInterval    time.Duration
	QueueCapacity    int
	QueueOverflow    string
	StatementTimeout time.Duration
	ShutdownTimeout  time.Duration
	ResolveNames     bool
	ResolveTimeout   time.Duration

	Freshness cache.Config
}

var DefaultConfig = Config{
	MaxBulkRows:     DefaultMaxBulkRows,
	MaxBatchSize:    DefaultMaxBatchSize,
	FlushInterval:   DefaultFlushInterval,
	QueueCapacity:   DefaultQueueCapacity,
	QueueOverflow:   string(OverflowBlock),
	ShutdownTimeout: DefaultShutdownTimeout,
	ResolveNames:    true,
	ResolveTimeout:  DefaultResolveTimeout,
	Freshness:       cache.DefaultConfig,
}

func ParseFlags(fs *flag.FlagSet, cfg *Config) *Config {
	fs.IntVar(&cfg.MaxBulkRows, "writer.max-bulk-rows", DefaultMaxBulkRows, "Maximum number of rows merged into one multi-row statement.")
	fs.IntVar(&cfg.MaxBatchSize, "writer.max-batch-size", DefaultMaxBatchSize, "Maximum number of write requests drained from the queue into one transaction.")
	fs.DurationVar(&cfg.FlushInterval, "writer.flush-interval", DefaultFlushInterval, "How long the writer waits for a batch to fill up after the first request arrived. 0 writes whatever is queued immediately.")
	fs.IntVar(&cfg.QueueCapacity, "writer.queue-capacity", DefaultQueueCapacity, "Maximum number of write requests waiting for the writer. 0 means unbounded.")
	fs.StringVar(&cfg.QueueOverflow, "writer.queue-overflow", string(OverflowBlock), "What to do with a write when the queue is full. One of: [block, reject]. Rejected writes are logged and counted.")
	fs.DurationVar(&cfg.StatementTimeout, "writer.statement-timeout", 0, "Timeout of a single statement. 0 means no timeout.")
	fs.DurationVar(&cfg.ShutdownTimeout, "writer.shutdown-timeout", DefaultShutdownTimeout, "How long shutdown waits for the writer to flush the queue.")
	fs.BoolVar(&cfg.ResolveNames, "router.resolve-names", true, "Look up the name of routers that connect without one by reverse DNS.")
	fs.DurationVar(&cfg.ResolveTimeout, "router.resolve-timeout", DefaultResolveTimeout, "Timeout of the reverse DNS lookup of a router name.")
	cache.ParseFlags(fs, &cfg.Freshness)
	return cfg
}

func Validate(cfg *Config) error {
	switch {
	case cfg.MaxBulkRows < 1:
		return fmt.Errorf("writer.max-bulk-rows must be at least 1")
	case cfg.MaxBatchSize < 1:
		return fmt.Errorf("writer.max-batch-size must be at least 1")
	case cfg.FlushInterval < 0:
		return fmt.Errorf("writer.flush-interval must not be negative")
	case cfg.QueueCapacity < 0:
		return fmt.Errorf("writer.queue-capacity must not be negative")
	case cfg.StatementTimeout < 0:
		return fmt.Errorf("writer.statement-timeout must not be negative")
	}
	if err := Overflow(cfg.QueueOverflow).validate(); err != nil {
		return err
	}
	return cache.Validate(&cfg.Freshness)
}
