package beacon

import (
	"context"

	"github.com/xraph/beacon/id"
	"github.com/xraph/beacon/scope"
)

// Connect registers a continuation for signals of payload type T on the
// emitter and returns the connection handle controlling it. The new slot
// starts enabled. Payload typing is enforced at compile time: a handler
// whose parameter type differs from the emission site's payload type does
// not type-check.
//
// Connect fails only when the emitter is already closed.
func Connect[T any](e *Emitter, h Handler[T]) (*Connection[T], error) {
	if e.Closed() {
		return nil, ErrEmitterClosed
	}

	r := registryFor[T](e)
	s := r.register(h)

	// Close may have raced the registration; a slot published after
	// closeAll would otherwise never be detached.
	if e.Closed() {
		r.unregister(s)
		s.closed.Store(true)
		return nil, ErrEmitterClosed
	}

	e.hooks.EmitConnectionOpened(context.Background(), e.id, s.id)
	return &Connection[T]{slot: s, scope: e.scope}, nil
}

// Disconnect physically removes the connection's slot from the emitter's
// registry, publishing a new snapshot without it. Returns true if the
// slot was actually removed; disconnecting twice reports true once, then
// false. After removal the connection is permanently inert.
func Disconnect[T any](e *Emitter, c *Connection[T]) bool {
	if c == nil {
		return false
	}

	r := registryFor[T](e)
	if !r.unregister(c.slot) {
		return false
	}
	c.slot.closed.Store(true)

	e.hooks.EmitConnectionRemoved(context.Background(), e.id, c.slot.id)
	return true
}

// Broadcast delivers the payload to every slot in the emitter's registry
// for type T, fire-and-forget. Slots are invoked in snapshot order;
// disabled slots are visited but skip execution. No result is observable
// and handler errors are discarded.
func Broadcast[T any](ctx context.Context, e *Emitter, payload T) {
	r := registryFor[T](e)
	snap := r.snapshot()
	for _, s := range snap {
		s.invoke(ctx, e.scope, payload)
	}
	e.hooks.EmitBroadcastSent(ctx, e.id, signalName[T](), len(snap))
}

// Emit delivers the payload only to the named connections — which may
// belong to different emitters of the same payload type — producing one
// pending result per connection, joined into an Aggregate that resolves
// when all targeted slots complete.
//
// The aggregate fails up front, before invoking any slot, if any
// connection is closed or disabled; the failure surfaces when the
// aggregate is awaited.
func Emit[T any](ctx context.Context, payload T, conns ...*Connection[T]) *Aggregate {
	if err := validate(conns); err != nil {
		return failedAggregate(err)
	}

	futures := make([]*scope.Future, 0, len(conns))
	for _, c := range conns {
		f := c.slot.invokeTracked(ctx, c.scope, payload)
		if f == nil {
			// The connection raced to disabled or closed after
			// validation (or its scope shut down).
			return failedAggregate(connFailure(c))
		}
		futures = append(futures, f)
	}
	return &Aggregate{futures: futures}
}

// Capture broadcasts the payload to the emitter's full registry while
// separately collecting results from the named captured connections.
//
// It first confirms every captured connection currently belongs to the
// emitter's registry with no duplicates, failing the aggregate up front
// if not. On success it spawns the targeted invocations, then disables
// the captured connections, broadcasts, and re-enables them: uncaptured
// slots observe the signal exactly once, and the disable window keeps the
// broadcast from double-firing the captured slots, which already received
// the call through their targeted invocation.
//
// A concurrent external Enable on a captured connection during the
// disable window can let the broadcast fire it a second time; this narrow
// race is accepted rather than locked away. The final re-enable is
// unconditional, so a connection the caller disabled beforehand comes out
// of a capture enabled.
func Capture[T any](ctx context.Context, e *Emitter, payload T, conns ...*Connection[T]) *Aggregate {
	for _, c := range conns {
		if c == nil || !c.slot.live() {
			err := &DeliveryError{Conn: connID(c), Err: ErrConnectionClosed}
			e.hooks.EmitEmissionFailed(ctx, connID(c), err)
			return failedAggregate(err)
		}
	}

	r := registryFor[T](e)
	members := make([]*slot[T], len(conns))
	for i, c := range conns {
		members[i] = c.slot
	}
	if err := r.check(members); err != nil {
		e.hooks.EmitEmissionFailed(ctx, id.Nil, err)
		return failedAggregate(err)
	}

	agg := Emit(ctx, payload, conns...)
	if agg.Err() != nil {
		e.hooks.EmitEmissionFailed(ctx, id.Nil, agg.Err())
	}

	// Replay rule: the broadcast still reaches every uncaptured slot
	// even when the targeted emission failed above.
	for _, c := range conns {
		c.slot.enabled.Store(false)
	}
	Broadcast(ctx, e, payload)
	for _, c := range conns {
		c.slot.enabled.Store(true)
	}

	e.hooks.EmitCaptureSent(ctx, e.id, signalName[T](), len(conns))
	return agg
}

// validate checks that every targeted connection is live and enabled,
// returning the first failure in targeting order.
func validate[T any](conns []*Connection[T]) error {
	for _, c := range conns {
		if err := connFailure(c); err != nil {
			return err
		}
	}
	return nil
}

// connFailure classifies the connection's current state as an emission
// failure, or nil if it is live and enabled.
func connFailure[T any](c *Connection[T]) error {
	switch {
	case c == nil || !c.slot.live():
		return &DeliveryError{Conn: connID(c), Err: ErrConnectionClosed}
	case !c.slot.enabled.Load():
		return &DeliveryError{Conn: c.slot.id, Err: ErrConnectionDisabled}
	default:
		return nil
	}
}

// connID returns the connection's ID, or the nil ID for a nil connection.
func connID[T any](c *Connection[T]) id.ConnectionID {
	if c == nil {
		return id.Nil
	}
	return c.slot.id
}
