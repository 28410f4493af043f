// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package util

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

const PromNamespace = "bmpstore"

// ParseEnv takes a prefix string p and *flag.FlagSet. Each flag
// in the FlagSet is exposed as an upper case environment variable
// prefixed with p. Any flag that was not explicitly set by a user
// is updated to the environment variable, if set.
//
// Note: when run with multiple times with different prefixes on the
// same FlagSet, precedence will get values set with prefix which is
// parsed first.
func ParseEnv(p string, fs *flag.FlagSet) error {
	var err error
	// Build a map of explicitly set flags.
	set := make(map[string]struct{})
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = struct{}{}
	})

	fs.VisitAll(func(f *flag.Flag) {
		// If an error occured while processing other flags, abort.
		if err != nil {
			return
		}
		envVar := GetEnvVarName(p, f.Name)

		if val := os.Getenv(envVar); val != "" {
			if _, defined := set[f.Name]; !defined {
				if err = fs.Set(f.Name, val); err != nil {
					err = fmt.Errorf(`error setting flag "%s" from env variable "%s": %w`,
						f.Name,
						envVar,
						err)
					return
				}
			}
		}

		f.Usage = fmt.Sprintf("%s [%s]", f.Usage, envVar)
	})

	return err
}

// GetEnvVarName returns the name of the environment variable used
// for setting the configuration flag based on a prefix and flag name.
func GetEnvVarName(prefix, fName string) (envVar string) {
	envVar = fmt.Sprintf("%s_%s", prefix, strings.ToUpper(fName))
	envVar = strings.ReplaceAll(envVar, "-", "_")
	return strings.ReplaceAll(envVar, ".", "_")
}

// Backoff returns the delay before retry number attempt (starting at 0),
// doubling from base and capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}
