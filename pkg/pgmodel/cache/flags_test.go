// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license

package cache

import (
	"flag"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/stretchr/testify/require"
)

func fullyParse(t *testing.T, args []string, expectError bool) Config {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(ioutil.Discard)
	config := &Config{}
	ParseFlags(fs, config)
	err := ff.Parse(fs, args)
	require.NoError(t, err)
	err = Validate(config)
	if expectError {
		require.Error(t, err)
		return Config{}
	}
	require.NoError(t, err)
	return *config
}

func TestParse(t *testing.T) {
	config := fullyParse(t, []string{}, false)
	require.Equal(t, DefaultConfig, config)

	config = fullyParse(t, []string{"-freshness.router-window", "30s", "-freshness.peer-window", "0", "-freshness.cache-size", "10"}, false)
	require.Equal(t, 30*time.Second, config.RouterWindow)
	require.Equal(t, time.Duration(0), config.PeerWindow)
	require.Equal(t, 10, config.Size)

	fullyParse(t, []string{"-freshness.router-window", "-1s"}, true)
	fullyParse(t, []string{"-freshness.cache-size", "-1"}, true)
}
