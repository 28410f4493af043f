// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license

package cache

import (
	"flag"
	"fmt"
	"time"
)

const (
	DefaultRouterWindow = 100 * time.Second
	DefaultPeerWindow   = 300 * time.Second
	DefaultSize         = 100000
)

type Config struct {
	RouterWindow time.Duration
	PeerWindow   time.Duration
	Size         int
}

var DefaultConfig = Config{
	RouterWindow: DefaultRouterWindow,
	PeerWindow:   DefaultPeerWindow,
	Size:         DefaultSize,
}

func ParseFlags(fs *flag.FlagSet, cfg *Config) *Config {
	fs.DurationVar(&cfg.RouterWindow, "freshness.router-window", DefaultRouterWindow, "Repeated writes of the same router within this window are skipped. 0 disables suppression.")
	fs.DurationVar(&cfg.PeerWindow, "freshness.peer-window", DefaultPeerWindow, "Repeated writes of the same peer within this window are skipped. 0 disables suppression.")
	fs.IntVar(&cfg.Size, "freshness.cache-size", DefaultSize, "Maximum number of routers and peers remembered by each freshness cache. 0 means unbounded.")
	return cfg
}

func Validate(cfg *Config) error {
	switch {
	case cfg.RouterWindow < 0:
		return fmt.Errorf("freshness.router-window must not be negative")
	case cfg.PeerWindow < 0:
		return fmt.Errorf("freshness.peer-window must not be negative")
	case cfg.Size < 0:
		return fmt.Errorf("freshness.cache-size must not be negative")
	}
	return nil
}
