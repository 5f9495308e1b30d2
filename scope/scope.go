// Package scope provides the structured-concurrency boundary owned by an
// emitter. Every slot continuation is spawned into the emitter's Scope,
// and draining the scope blocks until all spawned work has completed, so
// no subscriber task ever outlives its emitter.
package scope

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/xraph/beacon/sched"
)

// Scope tracks tasks spawned on a scheduler until completion. A Scope is
// safe for concurrent use. Once closed, it rejects new work; Drain waits
// for everything already spawned.
type Scope struct {
	sched   sched.Scheduler
	logger  *slog.Logger
	onPanic func(recovered any)

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures a Scope.
type Option func(*Scope)

// WithPanicHandler sets a callback invoked with the recovered value when a
// fire-and-forget task panics. The panic is swallowed either way.
func WithPanicHandler(fn func(recovered any)) Option {
	return func(s *Scope) { s.onPanic = fn }
}

// New creates a Scope over the given scheduler. A nil scheduler defaults
// to one goroutine per task; a nil logger defaults to slog.Default().
func New(scheduler sched.Scheduler, logger *slog.Logger, opts ...Option) *Scope {
	if scheduler == nil {
		scheduler = sched.Goroutines()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scope{sched: scheduler, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn schedules a fire-and-forget task. Panics inside the task are
// recovered, logged, and swallowed; the task's outcome is not observable.
// Spawn reports false when the scope is closed or the scheduler rejects
// the task.
func (s *Scope) Spawn(task func()) bool {
	if s.closed.Load() {
		return false
	}

	s.wg.Add(1)
	accepted := s.sched.Go(func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("spawned task panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				if s.onPanic != nil {
					s.onPanic(r)
				}
			}
		}()
		task()
	})
	if !accepted {
		s.wg.Done()
	}
	return accepted
}

// SpawnTracked schedules a result-bearing task and returns a Future that
// resolves with its value or error. Panics inside the task resolve the
// Future with an error instead of crashing the worker. Returns nil when
// the scope is closed or the scheduler rejects the task.
func (s *Scope) SpawnTracked(task func() (any, error)) *Future {
	if s.closed.Load() {
		return nil
	}

	f := &Future{done: make(chan struct{})}
	s.wg.Add(1)
	accepted := s.sched.Go(func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("tracked task panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				if s.onPanic != nil {
					s.onPanic(r)
				}
				f.resolve(nil, fmt.Errorf("scope: task panicked: %v", r))
			}
		}()
		v, err := task()
		f.resolve(v, err)
	})
	if !accepted {
		s.wg.Done()
		return nil
	}
	return f
}

// Close marks the scope closed. Subsequent Spawn and SpawnTracked calls
// are rejected; tasks already spawned keep running until Drain observes
// their completion.
func (s *Scope) Close() {
	s.closed.Store(true)
}

// Closed reports whether the scope has been closed.
func (s *Scope) Closed() bool { return s.closed.Load() }

// Drain blocks until every spawned task has completed or the context
// expires. It may be called more than once and regardless of Close.
func (s *Scope) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
