package dispatch

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by pushes against a closed queue.
var ErrQueueClosed = errors.New("queue closed")

// ErrQueueFull is returned by TryPush when the queue is at capacity.
var ErrQueueFull = errors.New("queue full")

// Queue is a fixed-capacity FIFO with blocking push/pop and explicit close
// semantics: after Close, pushes fail with ErrQueueClosed and pops drain the
// remaining items before reporting closed. Pushing to a closed queue is an
// error, never a panic.
type Queue[T any] struct {
	mu     sync.RWMutex
	ch     chan T
	closed bool
}

// NewQueue creates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		ch: make(chan T, capacity),
	}
}

// Push appends an item, blocking while the queue is full.
// The read lock is held across the send so Close cannot tear down the
// channel under an in-flight push. The flip side: Close stalls until every
// blocked Push lands, so whoever closes a queue must make sure its consumers
// keep draining (the engine resumes paused workers before closing).
func (q *Queue[T]) Push(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.ch <- item
	return nil
}

// TryPush appends an item without blocking, failing with ErrQueueFull when
// the queue is at capacity.
func (q *Queue[T]) TryPush(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop removes the oldest item, blocking until one is available. After Close,
// Pop keeps returning queued items until the queue is drained, then reports
// ok=false.
func (q *Queue[T]) Pop() (T, bool) {
	item, ok := <-q.ch
	return item, ok
}

// Close marks the queue closed. Idempotent. Waits for pushes already blocked
// on a full queue to complete, so consumers must still be draining when it is
// called.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
