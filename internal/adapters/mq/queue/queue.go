// Package queue defines the contract for handing completed reports to the
// persistence workers. The analysis itself is synchronous; only durable
// history flows through here.
package queue

import (
	"context"
	"sync"

	"github.com/okian/bikefit/internal/domain/model"
	"github.com/okian/bikefit/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a report to the queue.
	// Returns false if the queue is full and the report was not enqueued.
	Enqueue(ctx context.Context, report *model.FitReport) bool

	// Dequeue returns a channel that will receive reports as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan *model.FitReport

	// Len returns the current number of queued reports.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new reports
	// can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	reports  chan *model.FitReport
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.reports = make(chan *model.FitReport, q.capacity)

	metrics.UpdatePersistQueueCapacity(q.capacity)
	metrics.UpdatePersistQueueSize(0)
	metrics.UpdatePersistQueueUtilization(0)

	return q
}

// Enqueue adds a report to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, report *model.FitReport) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.reports <- report:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		// queue is full
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns a channel that will receive reports as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan *model.FitReport {
	out := make(chan *model.FitReport)
	go func() {
		defer close(out)
		for report := range q.reports {
			select {
			case out <- report:
				metrics.RecordQueueDequeue()
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued reports.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.reports)
	q.updateGauges()
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.reports)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.reports)
	metrics.UpdatePersistQueueSize(size)
	metrics.UpdatePersistQueueUtilization(float64(size) / float64(q.capacity))
}
