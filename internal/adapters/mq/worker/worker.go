// Package worker runs a pool of goroutines that drain the backfill queue
// into the processing pipeline.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/mnemo/internal/adapters/mq/queue"
	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/pkg/logger"
	"github.com/okian/mnemo/pkg/metrics"
)

// Processor consumes one record from the queue. Errors are logged and
// counted; the record is not retried.
type Processor interface {
	Process(ctx context.Context, rec model.Record) error
}

// Pool manages a fixed set of workers draining a shared queue.
type Pool struct {
	queue     queue.Queue
	processor Processor
	log       logger.Logger
	name      string
	count     int

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// Option applies a configuration option to the pool.
type Option func(*Pool)

// WithName sets the pool name used in logs.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithCount sets the number of worker goroutines.
func WithCount(count int) Option {
	return func(p *Pool) {
		if count > 0 {
			p.count = count
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

const defaultWorkerCount = 4

// NewPool creates a worker pool draining q into processor.
func NewPool(q queue.Queue, processor Processor, opts ...Option) *Pool {
	p := &Pool{
		queue:     q,
		processor: processor,
		name:      "backfill",
		count:     defaultWorkerCount,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named(p.name)
	}
	return p
}

// Start launches the workers. It returns immediately; workers run until
// Stop is called or the queue closes.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return errors.New("pool already started")
	}

	ctx, p.cancel = context.WithCancel(ctx)
	metrics.UpdateWorkerCount(p.count)

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.log.Info(ctx, "worker pool started", logger.Int("workers", p.count))
	return nil
}

// Stop cancels the workers and waits for in-flight records to finish.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
	p.log.Info(ctx, "worker pool stopped")
	return nil
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.log.Named("worker")

	for {
		rec, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrQueueClosed) {
				return
			}
			log.Warn(ctx, "dequeue failed", logger.Int("worker", id), logger.Error(err))
			continue
		}

		start := time.Now()
		if err := p.processor.Process(ctx, rec); err != nil {
			metrics.RecordWorkerError()
			log.Warn(ctx, "record processing failed",
				logger.Int("worker", id),
				logger.String("record_id", rec.RecordID),
				logger.String("patient_id", rec.PatientID),
				logger.Error(err))
		}
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}
}
