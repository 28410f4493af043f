// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package pgclient

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// MinServerVersion is the oldest PostgreSQL release with INSERT ... ON CONFLICT.
var MinServerVersion = semver.MustParse("9.5.0")

// parseServerVersion parses the server_version parameter, e.g.
// "14.4 (Debian 14.4-1.pgdg110+1)", "9.6.24" or "15beta1".
func parseServerVersion(s string) (semver.Version, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return semver.Version{}, fmt.Errorf("empty server version")
	}
	v := fields[0]
	end := 0
	for end < len(v) && (v[end] == '.' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	v = strings.TrimSuffix(v[:end], ".")
	if v == "" {
		return semver.Version{}, fmt.Errorf("invalid server version %q", s)
	}
	return semver.ParseTolerant(v)
}

// checkServerVersion fails for servers older than MinServerVersion.
func checkServerVersion(serverVersion string) error {
	v, err := parseServerVersion(serverVersion)
	if err != nil {
		return err
	}
	if v.LT(MinServerVersion) {
		return fmt.Errorf("PostgreSQL %s is not supported, at least %s is required", v, MinServerVersion)
	}
	return nil
}
