// Package worker runs the background persistence pool that drains completed
// reports off the queue and writes them to durable history.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/bikefit/internal/adapters/mq/queue"
	"github.com/okian/bikefit/internal/domain/model"
	"github.com/okian/bikefit/pkg/logger"
	"github.com/okian/bikefit/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	workerShutdownTimeout = 5 * time.Second
)

// Saver writes one report to durable history.
type Saver interface {
	SaveReport(ctx context.Context, report *model.FitReport) error
}

// Queue defines how workers receive reports.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *model.FitReport
}

// Worker drains reports and writes them via the Saver.
type Worker struct {
	queue Queue
	saver Saver
	name  string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a new persistence worker with configuration options.
func NewWorker(q Queue, saver Saver, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		saver:    saver,
		name:     "persist-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("persist-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop until ctx is canceled, the queue closes, or
// Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	reports := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case report, ok := <-reports:
			if !ok {
				return
			}
			if err := w.persist(ctx, report); err != nil {
				w.logger.Error(ctx, "persisting report failed",
					logger.String("reportID", report.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// persist writes a single report.
func (w *Worker) persist(ctx context.Context, report *model.FitReport) error {
	start := time.Now()
	defer func() {
		metrics.RecordPersistLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.saver.SaveReport(ctx, report); err != nil {
		metrics.RecordPersistError()
		return fmt.Errorf("save report %s: %w", report.ID, err)
	}

	metrics.RecordReportPersisted()
	return nil
}

// Pool manages multiple persistence workers.
type Pool struct {
	workers []*Worker

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers over the same queue and saver.
func NewPool(workerCount int, q *queue.InMemoryQueue, saver Saver) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("persist-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, saver, WithName("persist-worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop waits for all workers to finish, up to a per-worker timeout.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker stop timed out",
				logger.String("worker", w.name),
			)
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}
