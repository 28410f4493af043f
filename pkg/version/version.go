// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package version

var (
	// Version is bumped on every release. Development builds carry a
	// `-dev.N` pre-release tag on top of the next release version.
	Version    = "0.3.1-dev.0"
	CommitHash = ""
)
