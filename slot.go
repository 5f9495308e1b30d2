package beacon

import (
	"context"
	"sync/atomic"

	"github.com/xraph/beacon/id"
	"github.com/xraph/beacon/scope"
)

// Handler is a subscriber continuation for signals with payload type T.
// The returned value is discarded on broadcast and collected into the
// Aggregate on targeted and capture emissions.
//
// Handlers run asynchronously on the emitter's scheduler and must be safe
// to call concurrently with themselves.
type Handler[T any] func(ctx context.Context, payload T) (any, error)

// Void is the payload type for signals that carry no data.
type Void = struct{}

// slot holds one registered continuation plus its activation state.
// Identity is by allocation: connections and membership checks compare
// slot pointers, never values.
//
// enabled is the logical gate toggled by Connection.Enable/Disable.
// closed is set when the slot is removed from its registry or the owning
// emitter closes; it is the deterministic stand-in for weak-reference
// resolution — once set, the slot is permanently unreachable.
type slot[T any] struct {
	fn      Handler[T]
	id      id.ConnectionID
	enabled atomic.Bool
	closed  atomic.Bool
}

func newSlot[T any](fn Handler[T]) *slot[T] {
	s := &slot[T]{fn: fn, id: id.NewConnectionID()}
	s.enabled.Store(true)
	return s
}

// live reports whether the slot can still be resolved.
func (s *slot[T]) live() bool { return !s.closed.Load() }

// invoke spawns the continuation fire-and-forget. Disabled or closed
// slots are visited but skip execution. The result, if any, is discarded;
// panics are swallowed at the scope boundary.
func (s *slot[T]) invoke(ctx context.Context, sc *scope.Scope, payload T) {
	if !s.enabled.Load() || s.closed.Load() {
		return
	}
	sc.Spawn(func() {
		_, _ = s.fn(ctx, payload)
	})
}

// invokeTracked spawns the continuation and returns the future holding
// its eventual result. Returns nil when the slot is disabled or closed,
// or when the scope rejects the task.
func (s *slot[T]) invokeTracked(ctx context.Context, sc *scope.Scope, payload T) *scope.Future {
	if !s.enabled.Load() || s.closed.Load() {
		return nil
	}
	return sc.SpawnTracked(func() (any, error) {
		return s.fn(ctx, payload)
	})
}
