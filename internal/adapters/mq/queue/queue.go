// Package queue provides a bounded in-memory queue for backfill record
// processing.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/pkg/metrics"
)

// Sentinel errors for queue operations.
var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Queue accepts records for asynchronous processing and hands them to
// workers. Enqueue never blocks: a full queue rejects immediately so the
// intake path can apply backpressure instead of stalling.
type Queue interface {
	Enqueue(ctx context.Context, rec model.Record) error
	Dequeue(ctx context.Context) (model.Record, error)
	Size() int
	Capacity() int
	Close() error
}

// defaultCapacity bounds in-flight records when no capacity is configured.
const defaultCapacity = 1000

type memoryQueue struct {
	records chan model.Record
	mu      sync.RWMutex
	closed  bool
}

// Option applies a configuration option to the queue.
type Option func(*memoryQueue)

// WithCapacity sets the maximum number of queued records.
func WithCapacity(capacity int) Option {
	return func(q *memoryQueue) {
		if capacity > 0 {
			q.records = make(chan model.Record, capacity)
		}
	}
}

// NewMemoryQueue creates a bounded in-memory queue.
func NewMemoryQueue(_ context.Context, opts ...Option) Queue {
	q := &memoryQueue{
		records: make(chan model.Record, defaultCapacity),
	}
	for _, opt := range opts {
		opt(q)
	}
	metrics.UpdateQueueCapacity(cap(q.records))
	return q
}

func (q *memoryQueue) Enqueue(ctx context.Context, rec model.Record) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrQueueClosed
	}

	select {
	case q.records <- rec:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return ctx.Err()
	default:
		metrics.RecordQueueEnqueueError()
		return ErrQueueFull
	}
}

func (q *memoryQueue) Dequeue(ctx context.Context) (model.Record, error) {
	select {
	case rec, ok := <-q.records:
		if !ok {
			return model.Record{}, ErrQueueClosed
		}
		metrics.RecordQueueDequeue()
		q.updateGauges()
		return rec, nil
	case <-ctx.Done():
		return model.Record{}, ctx.Err()
	}
}

func (q *memoryQueue) Size() int {
	return len(q.records)
}

func (q *memoryQueue) Capacity() int {
	return cap(q.records)
}

// Close stops the queue. Queued records drain to workers; new enqueues
// fail with ErrQueueClosed.
func (q *memoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.records)
	return nil
}

func (q *memoryQueue) updateGauges() {
	size := len(q.records)
	capacity := cap(q.records)
	metrics.UpdateQueueSize(size)
	if capacity > 0 {
		metrics.UpdateQueueUtilization(float64(size) / float64(capacity) * 100)
	}
}
