// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package util

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type flagValues struct {
	First  string
	Second string
	Fourth int
}

func TestParseEnv(t *testing.T) {
	testCases := []struct {
		name       string
		prefixes   []string
		env        map[string]string
		args       []string
		flagValues flagValues
		err        error
	}{
		{
			name: "No env variables set",
		},
		{
			name:     "single prefix",
			prefixes: []string{"PREFIX"},
			env: map[string]string{
				"PREFIX_FIRST": "first value",
			},
			flagValues: flagValues{
				First: "first value",
			},
		},
		{
			name:     "dots and dashes become underscores",
			prefixes: []string{"PREFIX"},
			env: map[string]string{
				"PREFIX_DB_SECOND_FLAG": "second value",
			},
			flagValues: flagValues{
				Second: "second value",
			},
		},
		{
			name:     "cli args have precedence",
			prefixes: []string{"PREFIX"},
			env: map[string]string{
				"PREFIX_FIRST": "first value",
			},
			args: []string{
				"-first", "other value",
			},
			flagValues: flagValues{
				First: "other value",
			},
		},
		{
			name:     "error parsing env variables, wrong type",
			prefixes: []string{"PREFIX"},
			env: map[string]string{
				"PREFIX_FOURTH": "foobar",
			},
			err: fmt.Errorf(`error setting flag "fourth" from env variable "PREFIX_FOURTH": parse error`),
		},
	}

	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			os.Clearenv()
			for name, value := range c.env {
				if err := os.Setenv(name, value); err != nil {
					t.Fatalf("unexpected error when setting env var: name %s value %s error %s", name, value, err)
				}
			}

			fs := flag.NewFlagSet("test flag set", flag.ContinueOnError)
			values := flagValues{}

			fs.StringVar(&values.First, "first", "", "")
			fs.StringVar(&values.Second, "db.second-flag", "", "")
			fs.IntVar(&values.Fourth, "fourth", 0, "")

			for _, prefix := range c.prefixes {
				if err := ParseEnv(prefix, fs); err != nil {
					if c.err == nil {
						t.Fatalf("unexpected error while parsing env variables: %s", err)
					}
					if c.err.Error() != err.Error() {
						t.Fatalf("unexpected error while parsing flags:\ngot\n%s\nwanted\n%s\n", err, c.err)
					}
					return
				}
			}
			if err := fs.Parse(c.args); err != nil {
				t.Fatalf("unexpected error while parsing flags: %s", err)
			}

			if !reflect.DeepEqual(values, c.flagValues) {
				t.Fatalf("Unexpected flag values set\nwanted:\n%+v\ngot:\n%+v\n", c.flagValues, values)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	base, max := 100*time.Millisecond, time.Second
	require.Equal(t, 100*time.Millisecond, Backoff(0, base, max))
	require.Equal(t, 200*time.Millisecond, Backoff(1, base, max))
	require.Equal(t, 800*time.Millisecond, Backoff(3, base, max))
	require.Equal(t, time.Second, Backoff(4, base, max))
	require.Equal(t, time.Second, Backoff(40, base, max))
}

func TestHistogramBucketsSaturating(t *testing.T) {
	require.Equal(t, []float64{1, 2, 4, 8, 16, 32, 64, 90, 100}, HistogramBucketsSaturating(1, 2, 100))
}
