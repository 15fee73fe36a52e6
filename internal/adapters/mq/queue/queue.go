// Package queue buffers client log entries between the kiosk flows that
// produce them and the workers that ship them upstream.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/pkg/metrics"
)

const defaultCapacity = 1024

// Entry is the payload type flowing through the queue.
type Entry = model.LogEntry

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an entry. It returns false, without blocking, when the
	// queue is full or closed.
	Enqueue(ctx context.Context, e Entry) bool

	// Dequeue returns a channel receiving entries as they become available.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Entry

	// Len returns the current number of queued entries.
	Len(ctx context.Context) int

	// Close stops accepting entries. Entries already queued can still be
	// dequeued.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.entries = make(chan Entry, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds an entry without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return false
	}
	if ctx.Err() != nil {
		q.reject("context_cancelled")
		return false
	}

	select {
	case q.entries <- e:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		q.reject("queue_full")
		return false
	}
}

// SendLog enqueues entry. It satisfies the punch orchestrator's log sink.
func (q *InMemoryQueue) SendLog(ctx context.Context, entry model.LogEntry) bool {
	return q.Enqueue(ctx, entry)
}

// Dequeue returns a channel that receives entries until the queue is
// closed and drained, or ctx ends.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Entry {
	out := make(chan Entry)
	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-q.entries:
				if !ok {
					return
				}
				select {
				case out <- e:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued entries.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.entries)
}

// Close stops accepting entries. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.entries)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.entries)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}
