package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/beacon/hook"
	"github.com/xraph/beacon/id"
)

// Compile-time interface checks.
var (
	_ hook.Hook              = (*Hook)(nil)
	_ hook.ConnectionOpened  = (*Hook)(nil)
	_ hook.ConnectionRemoved = (*Hook)(nil)
	_ hook.BroadcastSent     = (*Hook)(nil)
	_ hook.CaptureSent       = (*Hook)(nil)
	_ hook.EmissionFailed    = (*Hook)(nil)
	_ hook.SlotPanicked      = (*Hook)(nil)
	_ hook.EmitterClosed     = (*Hook)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so this package does not depend on any particular audit
// store — callers inject the concrete backend at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Hook bridges beacon lifecycle events to an audit trail backend. Each
// lifecycle event emits a structured audit event through the [Recorder].
type Hook struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates a Hook that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Hook {
	h := &Hook{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "audit-hook" }

// ── Connection lifecycle ─────────────────────────────

// OnConnectionOpened implements hook.ConnectionOpened.
func (h *Hook) OnConnectionOpened(ctx context.Context, emitter id.EmitterID, conn id.ConnectionID) error {
	return h.record(ctx, ActionConnectionOpened, SeverityInfo, OutcomeSuccess,
		ResourceConnection, conn.String(), CategoryConnection, nil,
		"emitter_id", emitter.String(),
	)
}

// OnConnectionRemoved implements hook.ConnectionRemoved.
func (h *Hook) OnConnectionRemoved(ctx context.Context, emitter id.EmitterID, conn id.ConnectionID) error {
	return h.record(ctx, ActionConnectionRemoved, SeverityInfo, OutcomeSuccess,
		ResourceConnection, conn.String(), CategoryConnection, nil,
		"emitter_id", emitter.String(),
	)
}

// ── Dispatch lifecycle ─────────────────────────────

// OnBroadcastSent implements hook.BroadcastSent.
func (h *Hook) OnBroadcastSent(ctx context.Context, emitter id.EmitterID, signal string, fanout int) error {
	return h.record(ctx, ActionBroadcastSent, SeverityInfo, OutcomeSuccess,
		ResourceSignal, signal, CategoryDispatch, nil,
		"emitter_id", emitter.String(),
		"fanout", fanout,
	)
}

// OnCaptureSent implements hook.CaptureSent.
func (h *Hook) OnCaptureSent(ctx context.Context, emitter id.EmitterID, signal string, captured int) error {
	return h.record(ctx, ActionCaptureSent, SeverityInfo, OutcomeSuccess,
		ResourceSignal, signal, CategoryDispatch, nil,
		"emitter_id", emitter.String(),
		"captured", captured,
	)
}

// OnEmissionFailed implements hook.EmissionFailed.
func (h *Hook) OnEmissionFailed(ctx context.Context, conn id.ConnectionID, failure error) error {
	return h.record(ctx, ActionEmissionFailed, SeverityWarning, OutcomeFailure,
		ResourceConnection, conn.String(), CategoryDispatch, failure,
	)
}

// OnSlotPanicked implements hook.SlotPanicked.
func (h *Hook) OnSlotPanicked(ctx context.Context, emitter id.EmitterID, recovered any) error {
	return h.record(ctx, ActionSlotPanicked, SeverityCritical, OutcomeFailure,
		ResourceEmitter, emitter.String(), CategoryDispatch, nil,
		"panic", fmt.Sprintf("%v", recovered),
	)
}

// ── Emitter lifecycle ─────────────────────────────

// OnEmitterClosed implements hook.EmitterClosed.
func (h *Hook) OnEmitterClosed(ctx context.Context, emitter id.EmitterID) error {
	return h.record(ctx, ActionEmitterClosed, SeverityInfo, OutcomeSuccess,
		ResourceEmitter, emitter.String(), CategoryEmitter, nil,
	)
}

// record builds and persists one audit event, honoring the action filter.
// kv is an alternating key/value list merged into the event metadata.
func (h *Hook) record(ctx context.Context, action, severity, outcome, resource, resourceID, category string, failure error, kv ...any) error {
	if h.enabled != nil && !h.enabled[action] {
		return nil
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Outcome:    outcome,
		Severity:   severity,
	}
	if failure != nil {
		evt.Reason = failure.Error()
	}
	if len(kv) > 0 {
		evt.Metadata = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", kv[i])
			}
			evt.Metadata[key] = kv[i+1]
		}
	}

	if err := h.recorder.Record(ctx, evt); err != nil {
		h.logger.Warn("audit record failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
