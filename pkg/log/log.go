// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license

// Package log creates logs in the same way as Prometheus, while ignoring errors
package log

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/time/rate"
)

var (
	loggerMu sync.RWMutex
	// Application wide logger
	logger log.Logger = log.NewNopLogger()

	// logger timestamp format
	timestampFormat = log.TimestampFormat(
		func() time.Time { return time.Now().UTC() },
		"2006-01-02T15:04:05.000Z07:00",
	)

	rateLimitMu  sync.Mutex
	rateLimiters = map[string]*rate.Limiter{}
)

// Config represents a logger configuration used upon initialization.
type Config struct {
	Level  string
	Format string
}

// ParseFlags parses the configuration flags for logging.
func ParseFlags(fs *flag.FlagSet, cfg *Config) *Config {
	fs.StringVar(&cfg.Level, "telemetry.log.level", "info", "Only log messages with the given severity or above. One of: [debug, info, warn, error]")
	fs.StringVar(&cfg.Format, "telemetry.log.format", "logfmt", "Output format of log messages. One of: [logfmt, json]")
	return cfg
}

// Init starts logging given the configuration. By default, it uses logfmt
// format and minimum logging level.
func Init(cfg Config) error {
	return InitWriter(cfg, os.Stderr)
}

// InitWriter is Init with a custom destination, used by tests.
func InitWriter(cfg Config, w io.Writer) error {
	var l log.Logger
	switch cfg.Format {
	case "logfmt", "":
		l = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		l = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return fmt.Errorf("unrecognized log format %q", cfg.Format)
	}

	logLevelOption, err := parseLogLevel(cfg.Level)
	if err != nil {
		return err
	}

	l = level.NewFilter(l, logLevelOption)

	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = log.With(l, "ts", timestampFormat, "caller", log.Caller(5))
	return nil
}

// GetLogger returns the application wide logger.
func GetLogger() log.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func current() log.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Debug logs a DEBUG level message, ignoring logging errors
func Debug(keyvals ...interface{}) {
	_ = level.Debug(current()).Log(keyvals...)
}

// Info logs an INFO level message, ignoring logging errors
func Info(keyvals ...interface{}) {
	_ = level.Info(current()).Log(keyvals...)
}

// Warn logs a WARN level message, ignoring logging errors
func Warn(keyvals ...interface{}) {
	_ = level.Warn(current()).Log(keyvals...)
}

// Error logs an ERROR level message, ignoring logging errors
func Error(keyvals ...interface{}) {
	_ = level.Error(current()).Log(keyvals...)
}

// Fatal logs an ERROR level message and exits
func Fatal(keyvals ...interface{}) {
	_ = level.Error(current()).Log(keyvals...)
	os.Exit(1)
}

// WarnRateLimited logs a WARN level message at most once per second for
// each distinct "msg" value.
func WarnRateLimited(keyvals ...interface{}) {
	if allow(keyvals) {
		Warn(keyvals...)
	}
}

// ErrorRateLimited logs an ERROR level message at most once per second for
// each distinct "msg" value.
func ErrorRateLimited(keyvals ...interface{}) {
	if allow(keyvals) {
		Error(keyvals...)
	}
}

func allow(keyvals []interface{}) bool {
	key := fmt.Sprint(msgOf(keyvals))
	rateLimitMu.Lock()
	defer rateLimitMu.Unlock()
	l, ok := rateLimiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Second), 1)
		rateLimiters[key] = l
	}
	return l.Allow()
}

func msgOf(keyvals []interface{}) interface{} {
	for i := 0; i+1 < len(keyvals); i += 2 {
		if keyvals[i] == "msg" {
			return keyvals[i+1]
		}
	}
	return ""
}

func parseLogLevel(logLevel string) (level.Option, error) {
	switch logLevel {
	case "debug":
		return level.AllowDebug(), nil
	case "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("unrecognized log level %q", logLevel)
	}
}
