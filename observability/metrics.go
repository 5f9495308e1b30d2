package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/beacon"
	"github.com/xraph/beacon/hook"
	"github.com/xraph/beacon/id"
)

// meterName is the instrumentation scope name for beacon metrics.
const meterName = "github.com/xraph/beacon"

// Compile-time interface checks.
var (
	_ hook.Hook              = (*MetricsHook)(nil)
	_ hook.ConnectionOpened  = (*MetricsHook)(nil)
	_ hook.ConnectionRemoved = (*MetricsHook)(nil)
	_ hook.BroadcastSent     = (*MetricsHook)(nil)
	_ hook.CaptureSent       = (*MetricsHook)(nil)
	_ hook.EmissionFailed    = (*MetricsHook)(nil)
	_ hook.SlotPanicked      = (*MetricsHook)(nil)
	_ hook.EmitterClosed     = (*MetricsHook)(nil)
)

// MetricsHook records dispatch lifecycle metrics.
//
// Instruments:
//   - beacon.connections.opened / beacon.connections.removed (Int64Counter)
//   - beacon.broadcasts (Int64Counter, attribute: signal)
//   - beacon.broadcast.fanout (Int64Histogram, attribute: signal)
//   - beacon.captures (Int64Counter, attribute: signal)
//   - beacon.emissions.failed (Int64Counter, attribute: reason)
//   - beacon.slot.panics (Int64Counter)
//   - beacon.emitters.closed (Int64Counter)
type MetricsHook struct {
	connsOpened   metric.Int64Counter
	connsRemoved  metric.Int64Counter
	broadcasts    metric.Int64Counter
	fanout        metric.Int64Histogram
	captures      metric.Int64Counter
	failures      metric.Int64Counter
	panics        metric.Int64Counter
	emittersClose metric.Int64Counter
}

// NewMetricsHook creates a MetricsHook using the global OTel
// MeterProvider.
func NewMetricsHook() *MetricsHook {
	return NewMetricsHookWithMeter(otel.Meter(meterName))
}

// NewMetricsHookWithMeter creates a MetricsHook with the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func NewMetricsHookWithMeter(meter metric.Meter) *MetricsHook {
	// Instruments are created once here. On error the OTel API returns
	// noop instruments, so the hook degrades gracefully.
	m := &MetricsHook{}
	m.connsOpened, _ = meter.Int64Counter("beacon.connections.opened",
		metric.WithDescription("Connections registered"),
		metric.WithUnit("{connection}"),
	)
	m.connsRemoved, _ = meter.Int64Counter("beacon.connections.removed",
		metric.WithDescription("Connections physically removed"),
		metric.WithUnit("{connection}"),
	)
	m.broadcasts, _ = meter.Int64Counter("beacon.broadcasts",
		metric.WithDescription("Broadcast emissions"),
		metric.WithUnit("{broadcast}"),
	)
	m.fanout, _ = meter.Int64Histogram("beacon.broadcast.fanout",
		metric.WithDescription("Slots visited per broadcast"),
		metric.WithUnit("{slot}"),
	)
	m.captures, _ = meter.Int64Counter("beacon.captures",
		metric.WithDescription("Capture emissions"),
		metric.WithUnit("{capture}"),
	)
	m.failures, _ = meter.Int64Counter("beacon.emissions.failed",
		metric.WithDescription("Emissions failed before any slot was invoked"),
		metric.WithUnit("{emission}"),
	)
	m.panics, _ = meter.Int64Counter("beacon.slot.panics",
		metric.WithDescription("Slot continuations that panicked"),
		metric.WithUnit("{panic}"),
	)
	m.emittersClose, _ = meter.Int64Counter("beacon.emitters.closed",
		metric.WithDescription("Emitters closed"),
		metric.WithUnit("{emitter}"),
	)
	return m
}

// Name implements hook.Hook.
func (m *MetricsHook) Name() string { return "observability-metrics" }

// OnConnectionOpened implements hook.ConnectionOpened.
func (m *MetricsHook) OnConnectionOpened(ctx context.Context, _ id.EmitterID, _ id.ConnectionID) error {
	m.connsOpened.Add(ctx, 1)
	return nil
}

// OnConnectionRemoved implements hook.ConnectionRemoved.
func (m *MetricsHook) OnConnectionRemoved(ctx context.Context, _ id.EmitterID, _ id.ConnectionID) error {
	m.connsRemoved.Add(ctx, 1)
	return nil
}

// OnBroadcastSent implements hook.BroadcastSent.
func (m *MetricsHook) OnBroadcastSent(ctx context.Context, _ id.EmitterID, signal string, fanout int) error {
	attrs := metric.WithAttributes(attribute.String("signal", signal))
	m.broadcasts.Add(ctx, 1, attrs)
	m.fanout.Record(ctx, int64(fanout), attrs)
	return nil
}

// OnCaptureSent implements hook.CaptureSent.
func (m *MetricsHook) OnCaptureSent(ctx context.Context, _ id.EmitterID, signal string, _ int) error {
	m.captures.Add(ctx, 1, metric.WithAttributes(attribute.String("signal", signal)))
	return nil
}

// OnEmissionFailed implements hook.EmissionFailed.
func (m *MetricsHook) OnEmissionFailed(ctx context.Context, _ id.ConnectionID, failure error) error {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason(failure))))
	return nil
}

// OnSlotPanicked implements hook.SlotPanicked.
func (m *MetricsHook) OnSlotPanicked(ctx context.Context, _ id.EmitterID, _ any) error {
	m.panics.Add(ctx, 1)
	return nil
}

// OnEmitterClosed implements hook.EmitterClosed.
func (m *MetricsHook) OnEmitterClosed(ctx context.Context, _ id.EmitterID) error {
	m.emittersClose.Add(ctx, 1)
	return nil
}

// reason maps an emission failure to a low-cardinality attribute value.
func reason(err error) string {
	switch {
	case errors.Is(err, beacon.ErrConnectionClosed):
		return "closed"
	case errors.Is(err, beacon.ErrConnectionDisabled):
		return "disabled"
	case errors.Is(err, beacon.ErrMembership):
		return "membership"
	default:
		return "other"
	}
}
