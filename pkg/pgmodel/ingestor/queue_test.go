// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	goerrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
	"github.com/stretchr/testify/require"
)

func TestQueueOrderAndSequence(t *testing.T) {
	q := NewQueue(0, OverflowBlock)
	var pushed []*model.WriteRequest
	for i := 0; i < 5; i++ {
		req := testRequest(model.OpAddRib, "k")
		pushed = append(pushed, req)
		require.NoError(t, q.Push(req))
	}
	require.Equal(t, 5, q.Len())

	first := q.Drain(2, 0)
	require.Len(t, first, 2)
	rest := q.Drain(0, 0)
	require.Len(t, rest, 3)
	require.Equal(t, 0, q.Len())

	got := append(first, rest...)
	for i, req := range got {
		require.Same(t, pushed[i], req)
		require.Equal(t, uint64(i+1), req.Seq)
		require.False(t, req.EnqueuedAt.IsZero())
	}
}

func TestQueueGroupPushIsConsecutive(t *testing.T) {
	q := NewQueue(0, OverflowBlock)
	const producers, groups = 8, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := 0; g < groups; g++ {
				reqs := []*model.WriteRequest{
					testRequest(model.OpAddPeerDownEvent, "a"),
					testRequest(model.OpSetPeerState, "a"),
					testRequest(model.OpWithdrawPeerRib, "a"),
				}
				if err := q.Push(reqs...); err != nil {
					t.Errorf("push: %v", err)
					return
				}
				if reqs[0].Seq+1 != reqs[1].Seq || reqs[1].Seq+1 != reqs[2].Seq {
					t.Errorf("group sequence numbers not consecutive: %d %d %d", reqs[0].Seq, reqs[1].Seq, reqs[2].Seq)
				}
			}
		}()
	}
	wg.Wait()

	all := q.Drain(0, 0)
	require.Len(t, all, producers*groups*3)
	for i, req := range all {
		require.Equal(t, uint64(i+1), req.Seq)
		require.Equal(t, []model.Opcode{model.OpAddPeerDownEvent, model.OpSetPeerState, model.OpWithdrawPeerRib}[i%3], req.Op)
	}
}

func TestQueueDrainWaitsForFirstRequest(t *testing.T) {
	q := NewQueue(0, OverflowBlock)
	result := make(chan []*model.WriteRequest)
	go func() {
		result <- q.Drain(10, 0)
	}()

	select {
	case <-result:
		t.Fatal("drain returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Push(testRequest(model.OpAddRib, "a")))
	require.Len(t, <-result, 1)
}

func TestQueueDrainLinger(t *testing.T) {
	q := NewQueue(0, OverflowBlock)
	require.NoError(t, q.Push(testRequest(model.OpAddRib, "a")))

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = q.Push(testRequest(model.OpAddRib, "b"))
	}()

	start := time.Now()
	got := q.Drain(10, 200*time.Millisecond)
	require.Len(t, got, 2)
	require.True(t, time.Since(start) >= 200*time.Millisecond)
}

func TestQueueDrainReturnsWhenFull(t *testing.T) {
	q := NewQueue(0, OverflowBlock)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(testRequest(model.OpAddRib, "a")))
	}
	start := time.Now()
	require.Len(t, q.Drain(3, time.Hour), 3)
	require.True(t, time.Since(start) < time.Second)
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(0, OverflowBlock)
	result := make(chan []*model.WriteRequest)
	go func() {
		result <- q.Drain(10, time.Hour)
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	require.Empty(t, <-result)
	require.True(t, q.Closed())

	err := q.Push(testRequest(model.OpAddRib, "a"))
	require.True(t, goerrors.Is(err, errors.ErrQueueClosed))
	q.Close()
}

func TestQueueCloseKeepsQueuedRequests(t *testing.T) {
	q := NewQueue(0, OverflowBlock)
	require.NoError(t, q.Push(testRequest(model.OpAddRib, "a"), testRequest(model.OpAddRib, "b")))
	q.Close()

	start := time.Now()
	require.Len(t, q.Drain(1, time.Hour), 1)
	require.Len(t, q.Drain(1, time.Hour), 1)
	require.Empty(t, q.Drain(1, time.Hour))
	require.True(t, time.Since(start) < time.Second)
}

func TestQueueReject(t *testing.T) {
	q := NewQueue(2, OverflowReject)
	require.NoError(t, q.Push(testRequest(model.OpAddRib, "a")))
	require.NoError(t, q.Push(testRequest(model.OpAddRib, "b")))
	err := q.Push(testRequest(model.OpAddRib, "c"))
	require.True(t, goerrors.Is(err, errors.ErrQueueFull))
	require.Equal(t, 2, q.Len())

	q.Drain(1, 0)
	require.NoError(t, q.Push(testRequest(model.OpAddRib, "c")))
}

func TestQueueBlock(t *testing.T) {
	q := NewQueue(1, OverflowBlock)
	require.NoError(t, q.Push(testRequest(model.OpAddRib, "a")))

	pushed := make(chan error)
	go func() {
		pushed <- q.Push(testRequest(model.OpAddRib, "b"))
	}()

	select {
	case <-pushed:
		t.Fatal("push did not block on a full queue")
	case <-time.After(20 * time.Millisecond):
	}

	require.Len(t, q.Drain(0, 0), 1)
	require.NoError(t, <-pushed)
	require.Equal(t, 1, q.Len())
}

func TestQueueBlockedPushFailsOnClose(t *testing.T) {
	q := NewQueue(1, OverflowBlock)
	require.NoError(t, q.Push(testRequest(model.OpAddRib, "a")))

	pushed := make(chan error)
	go func() {
		pushed <- q.Push(testRequest(model.OpAddRib, "b"))
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()

	require.True(t, goerrors.Is(<-pushed, errors.ErrQueueClosed))
	require.Len(t, q.Drain(0, 0), 1)
}

func TestQueueOversizedGroupIntoEmptyQueue(t *testing.T) {
	q := NewQueue(2, OverflowReject)
	require.NoError(t, q.Push(
		testRequest(model.OpAddRib, "a"),
		testRequest(model.OpAddRib, "b"),
		testRequest(model.OpAddRib, "c"),
	))
	require.Equal(t, 3, q.Len())
}
