// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	lock sync.Mutex
	t    time.Time
}

func (c *fakeClock) now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.t = c.t.Add(d)
}

func TestFreshnessSuppression(t *testing.T) {
	const window = 100 * time.Second
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := NewFreshness("test", 10).WithClock(clock.now)
	key := model.HashOf("192.0.2.1")

	require.True(t, c.CheckAndMark(key, window), "first sighting proceeds")

	clock.advance(window * 4 / 10)
	require.False(t, c.CheckAndMark(key, window), "suppressed inside the window")

	// T + 1.2 window; the suppressed check must not have refreshed the entry
	clock.advance(window * 8 / 10)
	require.True(t, c.CheckAndMark(key, window), "proceeds after the window")

	clock.advance(window / 2)
	require.False(t, c.CheckAndMark(key, window), "refreshed by the previous proceed")

	require.True(t, c.CheckAndMark(model.HashOf("192.0.2.2"), window), "other keys are independent")
	require.Equal(t, 2, c.Len())
}

func TestFreshnessZeroWindow(t *testing.T) {
	c := NewFreshness("test", 10)
	key := model.HashOf("a")
	require.True(t, c.CheckAndMark(key, 0))
	require.True(t, c.CheckAndMark(key, 0))
}

func TestFreshnessMarkAndForget(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := NewFreshness("test", 10).WithClock(clock.now)
	key := model.HashOf("a")

	c.Mark(key)
	require.False(t, c.CheckAndMark(key, time.Minute))
	c.Forget(key)
	require.True(t, c.CheckAndMark(key, time.Minute))
	require.False(t, c.CheckAndMark(key, time.Minute))
}

func TestFreshnessEviction(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := NewFreshness("test", 4).WithClock(clock.now)

	keys := make([]model.Hash, 8)
	for i := range keys {
		keys[i] = model.HashOf(i)
	}
	for _, k := range keys {
		require.True(t, c.CheckAndMark(k, time.Hour))
		require.LessOrEqual(t, c.Len(), 4)
	}
	require.Equal(t, 4, c.Len())

	// the most recent key is still present and suppressed
	require.False(t, c.CheckAndMark(keys[7], time.Hour))
	// an evicted key behaves as absent
	require.True(t, c.CheckAndMark(keys[0], time.Hour))
	require.Equal(t, 4, c.Len())
}

func TestFreshnessUnbounded(t *testing.T) {
	c := NewFreshness("test", 0)
	for i := 0; i < 3000; i++ {
		require.True(t, c.CheckAndMark(model.HashOf(i), time.Hour))
	}
	require.Equal(t, 3000, c.Len())
}

func TestFreshnessConcurrent(t *testing.T) {
	c := NewFreshness("test", 0)
	key := model.HashOf("shared")

	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		proceed int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if c.CheckAndMark(key, time.Hour) {
					lock.Lock()
					proceed++
					lock.Unlock()
				}
				c.CheckAndMark(model.HashOf(fmt.Sprint(i, j)), time.Hour)
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, proceed, "exactly one concurrent sighting proceeds")
	require.Equal(t, 16*100+1, c.Len())
}
