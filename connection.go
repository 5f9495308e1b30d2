package beacon

import (
	"github.com/xraph/beacon/id"
	"github.com/xraph/beacon/scope"
)

// Connection is a caller-held handle to a registered continuation. It
// references the slot weakly: it never keeps the slot registered, and once
// the slot is removed (or the emitter closes) every operation reports
// failure instead of misbehaving.
//
// Enable and Disable are the O(1) logical gate — an atomic flag store that
// never touches the registry. Physical removal is Disconnect, which pays
// the O(n) copy-on-write cost. Toggling is expected to be far more
// frequent than topology changes, hence the two tiers.
type Connection[T any] struct {
	slot  *slot[T]
	scope *scope.Scope
}

// ID returns the connection's unique identifier.
func (c *Connection[T]) ID() id.ConnectionID { return c.slot.id }

// Enable atomically re-activates the connection's slot. Returns false if
// the slot is gone (disconnected, or its emitter closed).
func (c *Connection[T]) Enable() bool {
	if !c.slot.live() {
		return false
	}
	c.slot.enabled.Store(true)
	return true
}

// Disable atomically gates the connection's slot off: subsequent
// emissions skip it, but an invocation already spawned is not cancelled.
// Returns false if the slot is gone.
func (c *Connection[T]) Disable() bool {
	if !c.slot.live() {
		return false
	}
	c.slot.enabled.Store(false)
	return true
}

// Enabled reports whether the slot is currently live and enabled.
func (c *Connection[T]) Enabled() bool {
	return c.slot.live() && c.slot.enabled.Load()
}

// Closed reports whether the connection has become permanently inert.
func (c *Connection[T]) Closed() bool { return !c.slot.live() }
