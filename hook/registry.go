package hook

import (
	"context"
	"log/slog"

	"github.com/xraph/beacon/id"
)

// Named entry types pair a hook implementation with the hook name captured
// at registration time. This avoids type-asserting back to Hook inside the
// emit methods.
type connectionOpenedEntry struct {
	name string
	hook ConnectionOpened
}

type connectionRemovedEntry struct {
	name string
	hook ConnectionRemoved
}

type broadcastSentEntry struct {
	name string
	hook BroadcastSent
}

type captureSentEntry struct {
	name string
	hook CaptureSent
}

type emissionFailedEntry struct {
	name string
	hook EmissionFailed
}

type slotPanickedEntry struct {
	name string
	hook SlotPanicked
}

type emitterClosedEntry struct {
	name string
	hook EmitterClosed
}

// Registry holds registered hooks and dispatches lifecycle events to them.
// It type-caches hooks at registration time so emit calls iterate only
// over hooks that implement the relevant event.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	// Type-cached slices for each lifecycle event.
	connectionOpened  []connectionOpenedEntry
	connectionRemoved []connectionRemovedEntry
	broadcastSent     []broadcastSentEntry
	captureSent       []captureSentEntry
	emissionFailed    []emissionFailedEntry
	slotPanicked      []slotPanickedEntry
	emitterClosed     []emitterClosedEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable event
// caches. Hooks are notified in registration order. Register is not safe
// to call concurrently with dispatch; attach hooks before using the
// emitter.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if e, ok := h.(ConnectionOpened); ok {
		r.connectionOpened = append(r.connectionOpened, connectionOpenedEntry{name, e})
	}
	if e, ok := h.(ConnectionRemoved); ok {
		r.connectionRemoved = append(r.connectionRemoved, connectionRemovedEntry{name, e})
	}
	if e, ok := h.(BroadcastSent); ok {
		r.broadcastSent = append(r.broadcastSent, broadcastSentEntry{name, e})
	}
	if e, ok := h.(CaptureSent); ok {
		r.captureSent = append(r.captureSent, captureSentEntry{name, e})
	}
	if e, ok := h.(EmissionFailed); ok {
		r.emissionFailed = append(r.emissionFailed, emissionFailedEntry{name, e})
	}
	if e, ok := h.(SlotPanicked); ok {
		r.slotPanicked = append(r.slotPanicked, slotPanickedEntry{name, e})
	}
	if e, ok := h.(EmitterClosed); ok {
		r.emitterClosed = append(r.emitterClosed, emitterClosedEntry{name, e})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook { return r.hooks }

// ──────────────────────────────────────────────────
// Event emitters
// ──────────────────────────────────────────────────

// EmitConnectionOpened notifies all hooks that implement ConnectionOpened.
func (r *Registry) EmitConnectionOpened(ctx context.Context, emitter id.EmitterID, conn id.ConnectionID) {
	for _, e := range r.connectionOpened {
		if err := e.hook.OnConnectionOpened(ctx, emitter, conn); err != nil {
			r.logHookError("OnConnectionOpened", e.name, err)
		}
	}
}

// EmitConnectionRemoved notifies all hooks that implement ConnectionRemoved.
func (r *Registry) EmitConnectionRemoved(ctx context.Context, emitter id.EmitterID, conn id.ConnectionID) {
	for _, e := range r.connectionRemoved {
		if err := e.hook.OnConnectionRemoved(ctx, emitter, conn); err != nil {
			r.logHookError("OnConnectionRemoved", e.name, err)
		}
	}
}

// EmitBroadcastSent notifies all hooks that implement BroadcastSent.
func (r *Registry) EmitBroadcastSent(ctx context.Context, emitter id.EmitterID, signal string, fanout int) {
	for _, e := range r.broadcastSent {
		if err := e.hook.OnBroadcastSent(ctx, emitter, signal, fanout); err != nil {
			r.logHookError("OnBroadcastSent", e.name, err)
		}
	}
}

// EmitCaptureSent notifies all hooks that implement CaptureSent.
func (r *Registry) EmitCaptureSent(ctx context.Context, emitter id.EmitterID, signal string, captured int) {
	for _, e := range r.captureSent {
		if err := e.hook.OnCaptureSent(ctx, emitter, signal, captured); err != nil {
			r.logHookError("OnCaptureSent", e.name, err)
		}
	}
}

// EmitEmissionFailed notifies all hooks that implement EmissionFailed.
func (r *Registry) EmitEmissionFailed(ctx context.Context, conn id.ConnectionID, failure error) {
	for _, e := range r.emissionFailed {
		if err := e.hook.OnEmissionFailed(ctx, conn, failure); err != nil {
			r.logHookError("OnEmissionFailed", e.name, err)
		}
	}
}

// EmitSlotPanicked notifies all hooks that implement SlotPanicked.
func (r *Registry) EmitSlotPanicked(ctx context.Context, emitter id.EmitterID, recovered any) {
	for _, e := range r.slotPanicked {
		if err := e.hook.OnSlotPanicked(ctx, emitter, recovered); err != nil {
			r.logHookError("OnSlotPanicked", e.name, err)
		}
	}
}

// EmitEmitterClosed notifies all hooks that implement EmitterClosed.
func (r *Registry) EmitEmitterClosed(ctx context.Context, emitter id.EmitterID) {
	for _, e := range r.emitterClosed {
		if err := e.hook.OnEmitterClosed(ctx, emitter); err != nil {
			r.logHookError("OnEmitterClosed", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors are never propagated to
// dispatch callers.
func (r *Registry) logHookError(event, hookName string, err error) {
	r.logger.Warn("hook error",
		slog.String("event", event),
		slog.String("hook", hookName),
		slog.String("error", err.Error()),
	)
}
