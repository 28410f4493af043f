// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package ingestor

import (
	"fmt"
	"sync"
	"time"

	"github.com/routewatch/bmpstore/pkg/pgmodel/common/errors"
	"github.com/routewatch/bmpstore/pkg/pgmodel/metrics"
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

// Overflow is what Push does when the queue is at capacity.
type Overflow string

const (
	// OverflowBlock makes Push wait for the writer to free space.
	OverflowBlock Overflow = "block"
	// OverflowReject makes Push fail with ErrQueueFull.
	OverflowReject Overflow = "reject"
)

func (o Overflow) validate() error {
	switch o {
	case OverflowBlock, OverflowReject:
		return nil
	}
	return fmt.Errorf("unknown queue overflow policy %q, must be one of [%s, %s]", string(o), OverflowBlock, OverflowReject)
}

// Queue is the FIFO between the entity methods and the writer. It fixes the
// global order of all requests by assigning Seq at push time. Any number of
// goroutines may push; exactly one drains.
type Queue struct {
	lock     sync.Mutex
	items    []*model.WriteRequest
	seq      uint64
	capacity int
	overflow Overflow
	closed   bool

	// signaled after every push, buffered so a push never blocks on it
	notEmpty chan struct{}
	// closed and replaced whenever a drain frees space
	space chan struct{}
	// closed by Close
	done chan struct{}
}

// NewQueue creates a queue holding at most capacity requests, 0 meaning
// unbounded.
func NewQueue(capacity int, overflow Overflow) *Queue {
	metrics.QueueCapacity.Set(float64(capacity))
	return &Queue{
		capacity: capacity,
		overflow: overflow,
		notEmpty: make(chan struct{}, 1),
		space:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Push appends the requests in order, assigning each the next sequence
// number. The requests are pushed together: either all are enqueued with
// consecutive sequence numbers or none is.
func (q *Queue) Push(reqs ...*model.WriteRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	q.lock.Lock()
	for !q.closed && q.full(len(reqs)) {
		if q.overflow != OverflowBlock {
			q.lock.Unlock()
			return errors.ErrQueueFull
		}
		space := q.space
		q.lock.Unlock()
		select {
		case <-space:
		case <-q.done:
		}
		q.lock.Lock()
	}
	if q.closed {
		q.lock.Unlock()
		return errors.ErrQueueClosed
	}

	now := time.Now()
	for _, req := range reqs {
		q.seq++
		req.Seq = q.seq
		req.EnqueuedAt = now
		q.items = append(q.items, req)
		metrics.QueuePushed.WithLabelValues(req.Op.String()).Inc()
	}
	metrics.QueueLength.Set(float64(len(q.items)))
	q.lock.Unlock()

	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
	return nil
}

// full reports whether n more requests do not fit. An empty queue always
// accepts, so a group larger than the capacity cannot wait forever.
func (q *Queue) full(n int) bool {
	return q.capacity > 0 && len(q.items) > 0 && len(q.items)+n > q.capacity
}

// Drain removes up to max requests in push order, max <= 0 meaning all.
//
// It blocks while the queue is empty and open. Once a request is present it
// keeps collecting until max requests are available or linger has passed
// since the first one was observed. After Close it returns the remaining
// requests without waiting, and nil once the queue is empty.
func (q *Queue) Drain(max int, linger time.Duration) []*model.WriteRequest {
	q.lock.Lock()
	for len(q.items) == 0 {
		if q.closed {
			q.lock.Unlock()
			return nil
		}
		q.lock.Unlock()
		select {
		case <-q.notEmpty:
		case <-q.done:
		}
		q.lock.Lock()
	}

	if linger > 0 && !q.closed && (max <= 0 || len(q.items) < max) {
		timer := time.NewTimer(linger)
	wait:
		for !q.closed && (max <= 0 || len(q.items) < max) {
			q.lock.Unlock()
			select {
			case <-q.notEmpty:
				q.lock.Lock()
			case <-q.done:
				q.lock.Lock()
			case <-timer.C:
				q.lock.Lock()
				break wait
			}
		}
		timer.Stop()
	}

	n := len(q.items)
	if max > 0 && n > max {
		n = max
	}
	out := make([]*model.WriteRequest, n)
	copy(out, q.items)
	for i := 0; i < n; i++ {
		q.items[i] = nil
	}
	q.items = q.items[n:]
	if len(q.items) == 0 {
		q.items = nil
	}
	metrics.QueueLength.Set(float64(len(q.items)))

	close(q.space)
	q.space = make(chan struct{})
	q.lock.Unlock()

	now := time.Now()
	for _, req := range out {
		metrics.QueueLatency.Observe(now.Sub(req.EnqueuedAt).Seconds())
	}
	return out
}

// Close stops accepting requests and wakes blocked producers and the
// consumer. Requests already queued remain drainable.
func (q *Queue) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *Queue) Closed() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.closed
}

func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

func (q *Queue) Cap() int {
	return q.capacity
}
