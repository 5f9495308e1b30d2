package scope

import (
	"context"
	"sync"
)

// Future is the handle to a tracked task's eventual result. It resolves
// exactly once; Await may be called any number of times from any
// goroutine.
type Future struct {
	done chan struct{}
	once sync.Once

	value any
	err   error
}

// resolve stores the outcome and unblocks waiters. Later calls are no-ops,
// which keeps the panic-recovery path safe when the task already resolved.
func (f *Future) resolve(value any, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Await blocks until the task completes or the context expires, then
// returns the task's value and error.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the task has completed.
func (f *Future) Done() <-chan struct{} { return f.done }
