package sched

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter wraps another Scheduler with a token-bucket rate limit and a
// concurrency cap. The limits are enforced inside the scheduled task, so
// Go itself never blocks the caller: tasks queue up behind the limiter on
// the inner scheduler's goroutines.
type Limiter struct {
	inner   Scheduler
	limiter *rate.Limiter
	sem     *semaphore.Weighted
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithRateLimit caps sustained task starts per second, with the given
// burst size. A zero perSecond disables rate limiting.
func WithRateLimit(perSecond float64, burst int) LimiterOption {
	return func(l *Limiter) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMaxConcurrent caps how many tasks may run simultaneously.
// Zero means no cap.
func WithMaxConcurrent(n int) LimiterOption {
	return func(l *Limiter) {
		if n > 0 {
			l.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewLimiter wraps inner with the given limits. With no options it is a
// pass-through.
func NewLimiter(inner Scheduler, opts ...LimiterOption) *Limiter {
	l := &Limiter{inner: inner}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Go schedules the task on the inner scheduler, gated by the configured
// limits.
func (l *Limiter) Go(task func()) bool {
	return l.inner.Go(func() {
		ctx := context.Background()
		if l.sem != nil {
			if err := l.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer l.sem.Release(1)
		}
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return
			}
		}
		task()
	})
}
