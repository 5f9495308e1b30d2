// Package hook defines the lifecycle hook system for beacon.
// Hooks are notified of dispatch events (connection opened, broadcast
// sent, capture performed, slot panicked, etc.) and can react to them —
// logging, metrics, tracing, and so on.
//
// Each lifecycle event is a separate interface so hooks opt in only to
// the events they care about.
package hook

import (
	"context"

	"github.com/xraph/beacon/id"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// ──────────────────────────────────────────────────
// Connection lifecycle
// ──────────────────────────────────────────────────

// ConnectionOpened is called after a continuation is registered.
type ConnectionOpened interface {
	OnConnectionOpened(ctx context.Context, emitter id.EmitterID, conn id.ConnectionID) error
}

// ConnectionRemoved is called after a connection is physically removed
// from its registry.
type ConnectionRemoved interface {
	OnConnectionRemoved(ctx context.Context, emitter id.EmitterID, conn id.ConnectionID) error
}

// ──────────────────────────────────────────────────
// Dispatch lifecycle
// ──────────────────────────────────────────────────

// BroadcastSent is called after a broadcast has been fanned out.
// Fanout counts the slots visited, enabled or not.
type BroadcastSent interface {
	OnBroadcastSent(ctx context.Context, emitter id.EmitterID, signal string, fanout int) error
}

// CaptureSent is called after a capture emission completed its
// check/broadcast/replay sequence, whether or not the aggregate failed.
type CaptureSent interface {
	OnCaptureSent(ctx context.Context, emitter id.EmitterID, signal string, captured int) error
}

// EmissionFailed is called when a targeted or capture emission fails
// up front (connection closed, disabled, or membership rejected).
type EmissionFailed interface {
	OnEmissionFailed(ctx context.Context, conn id.ConnectionID, err error) error
}

// SlotPanicked is called when a slot continuation panics. The panic has
// already been recovered and logged by the scope.
type SlotPanicked interface {
	OnSlotPanicked(ctx context.Context, emitter id.EmitterID, recovered any) error
}

// ──────────────────────────────────────────────────
// Emitter lifecycle
// ──────────────────────────────────────────────────

// EmitterClosed is called when an emitter closes, before its scope drains.
type EmitterClosed interface {
	OnEmitterClosed(ctx context.Context, emitter id.EmitterID) error
}
