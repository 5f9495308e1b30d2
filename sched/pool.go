package sched

import (
	"context"
	"log/slog"
	"sync"
)

// Pool is a bounded scheduler: a fixed set of worker goroutines consuming
// tasks from a buffered queue. Use it when slot continuations should not
// fan out onto unbounded goroutines.
type Pool struct {
	workers int
	depth   int
	logger  *slog.Logger

	tasks  chan func()
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) { p.workers = n }
}

// WithQueueDepth sets the task queue buffer size. Go blocks once the
// queue is full, so slot continuations should stay short or the pool
// should be sized for the expected burst.
func WithQueueDepth(n int) PoolOption {
	return func(p *Pool) { p.depth = n }
}

// WithPoolLogger sets the structured logger for the pool.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool creates a worker pool. Call Start before scheduling tasks.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		workers: 8,
		depth:   256,
		logger:  slog.Default(),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tasks = make(chan func(), p.depth)
	return p
}

// Start launches the worker goroutines. It returns immediately and is
// idempotent.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true

	p.logger.Debug("scheduler pool starting",
		slog.Int("workers", p.workers),
		slog.Int("queue_depth", p.depth),
	)

	for range p.workers {
		p.wg.Add(1)
		go p.runLoop()
	}
}

// Go schedules a task on the pool. It reports false if the pool is not
// running. When the queue is full, Go blocks until a worker frees a slot
// or the pool stops.
func (p *Pool) Go(task func()) bool {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	case <-p.stopCh:
		return false
	}
}

// Stop signals all workers to stop and waits for them to finish. Tasks
// already queued are executed before workers exit. If the context expires
// first, Stop returns its error without waiting further.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("scheduler pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("scheduler pool shutdown timed out")
		return ctx.Err()
	}
}

// runLoop is run by each worker goroutine.
func (p *Pool) runLoop() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.stopCh:
			// Drain queued tasks so tracked work is never dropped.
			for {
				select {
				case task := <-p.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}
