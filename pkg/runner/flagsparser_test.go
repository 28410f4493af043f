// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.
//
// https://github.com/peterbourgon/ff/blob/7a9748fa77b6d2664e5553540a9cb69d31978815/ffyaml/ffyaml_test.go
package runner

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/fftest"
	"github.com/stretchr/testify/require"
)

func TestParser(t *testing.T) {
	t.Parallel()

	for _, testcase := range []struct {
		name string
		file string
		miss bool // AllowMissingConfigFiles
		want fftest.Vars
	}{
		{
			name: "empty",
			file: "testdata/empty.yaml",
			want: fftest.Vars{},
		},
		{
			name: "basic KV pairs",
			file: "testdata/basic.yaml",
			want: fftest.Vars{S: "hello", I: 10, B: true, D: 5 * time.Second, F: 3.14},
		},
		{
			name: "invalid prefix",
			file: "testdata/invalid_prefix.yaml",
			want: fftest.Vars{WantParseErrorString: "found character that cannot start any token"},
		},
		{
			name: "basic arrays",
			file: "testdata/basic_array.yaml",
			want: fftest.Vars{S: "c", X: []string{"a", "b", "c"}},
		},
		{
			name: "missing config file allowed",
			file: "testdata/this_file_does_not_exist.yaml",
			miss: true,
			want: fftest.Vars{},
		},
		{
			name: "missing config file not allowed",
			file: "testdata/this_file_does_not_exist.yaml",
			miss: false,
			want: fftest.Vars{WantParseErrorIs: os.ErrNotExist},
		},
	} {
		testcase := testcase
		t.Run(testcase.name, func(t *testing.T) {
			fs := flag.NewFlagSet("fftest", flag.ContinueOnError)
			vars := fftest.DefaultVars(fs)
			vars.ParseError = ff.Parse(fs, []string{},
				ff.WithConfigFile(testcase.file),
				ff.WithConfigFileParser(Parser),
				ff.WithAllowMissingConfigFile(testcase.miss),
			)
			fftest.Compare(t, &testcase.want, vars)
		})
	}
}

func TestParserNested(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("fftest", flag.ContinueOnError)
	var (
		host          = fs.String("db.host", "localhost", "")
		port          = fs.Int("db.port", 5432, "")
		batch         = fs.Int("writer.max-batch-size", 20000, "")
		flush         = fs.Duration("writer.flush-interval", time.Second, "")
		routerWindow  = fs.Duration("freshness.router-window", time.Minute, "")
		untouchedFlag = fs.String("db.user", "postgres", "")
	)
	err := ff.Parse(fs, []string{},
		ff.WithConfigFile("testdata/nested.yaml"),
		ff.WithConfigFileParser(Parser),
	)
	require.NoError(t, err)
	require.Equal(t, "db.example.net", *host)
	require.Equal(t, 5433, *port)
	require.Equal(t, 1000, *batch)
	require.Equal(t, 250*time.Millisecond, *flush)
	require.Equal(t, 30*time.Second, *routerWindow)
	require.Equal(t, "postgres", *untouchedFlag)
}

func TestParserDuplicateKey(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("fftest", flag.ContinueOnError)
	fs.String("db.host", "localhost", "")
	err := ff.Parse(fs, []string{},
		ff.WithConfigFile("testdata/duplicate.yaml"),
		ff.WithConfigFileParser(Parser),
	)
	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, err.Error(), "db.host is set more than once")
}
