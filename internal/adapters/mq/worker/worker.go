// Package worker ships queued client log entries to the backend.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/timeclock/internal/adapters/mq/queue"
	"github.com/okian/timeclock/pkg/logger"
	"github.com/okian/timeclock/pkg/metrics"
)

const (
	defaultWorkerCount    = 2
	defaultSendTimeout    = 5 * time.Second
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 10 * time.Second
)

// Sender delivers one log entry upstream.
type Sender interface {
	SendLog(ctx context.Context, entry queue.Entry) error
}

// Queue defines how workers receive entries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Entry
}

// Worker ships entries until its queue drains or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker reads entries off a Queue and sends them one at a time.
// A failed send is logged and counted; it is never retried.
type InMemoryWorker struct {
	queue       Queue
	sender      Sender
	name        string
	sendTimeout time.Duration
	onShipped   func()

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading q and shipping through s.
func NewInMemoryWorker(q Queue, s Sender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		sender:      s,
		name:        "log-shipper",
		sendTimeout: defaultSendTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run ships entries until the queue closes and drains, ctx ends, or the
// worker is shut down.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	entries := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			if err := w.ship(ctx, e); err != nil {
				w.logger.Warn(ctx, "log entry not shipped", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) ship(ctx context.Context, e queue.Entry) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	// Shipping continues during shutdown so the drain is not cut short.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.sendTimeout)
	defer cancel()

	if err := w.sender.SendLog(sendCtx, e); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "send_log")
		metrics.RecordErrorByType("send_log", "low")
		return fmt.Errorf("send log %s for %s: %w", e.ID, e.EmployeeID, err)
	}

	metrics.RecordLogShipped()
	if w.onShipped != nil {
		w.onShipped()
	}
	w.logger.Debug(ctx, "log entry shipped",
		logger.String("log_id", e.ID),
		logger.String("button", e.Button),
	)
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown     chan struct{}
	shutdownOnce sync.Once

	shipped     atomic.Int64
	lastUpdated time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. Options apply to every
// worker; each worker gets its own name.
func NewPool(workerCount int, q Queue, s Sender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers:     make([]*InMemoryWorker, workerCount),
		queue:       q,
		shutdown:    make(chan struct{}),
		lastUpdated: time.Now(),
		logger:      logger.Get().Named("log-shipper-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{}, opts...)
		workerOpts = append(workerOpts,
			WithName("log-shipper-"+strconv.Itoa(i)),
			withShippedHook(p.recordShipped),
		)
		p.workers[i] = NewInMemoryWorker(q, s, workerOpts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0.0)
	return p
}

// Start starts all workers and the metrics updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Shipped returns how many entries have been shipped since the last
// metrics update.
func (p *Pool) Shipped() int64 { return p.shipped.Load() }

func (p *Pool) recordShipped() { p.shipped.Add(1) }

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	if elapsed := now.Sub(p.lastUpdated).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(p.shipped.Swap(0)) / elapsed)
	}
	p.lastUpdated = now
}

// Stop stops every worker without draining the queue.
func (p *Pool) Stop() {
	p.shutdownOnce.Do(func() { close(p.shutdown) })
	for _, w := range p.workers {
		w.stop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(poolShutdownTimeout):
			p.logger.Warn(context.Background(), "worker did not stop", logger.String("worker", w.name))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx ends are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.String("worker", w.name))
		}
		if timedOut {
			break
		}
	}

	p.Stop()
	if timedOut {
		return fmt.Errorf("log shipper drain: %w", drainCtx.Err())
	}
	return nil
}
