package observability_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/beacon"
	"github.com/xraph/beacon/id"
	"github.com/xraph/beacon/observability"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64] data type, got %T", name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsHook_ConnectionLifecycle(t *testing.T) {
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))

	ctx := context.Background()
	emitter := id.NewEmitterID()
	conn := id.NewConnectionID()

	_ = h.OnConnectionOpened(ctx, emitter, conn)
	_ = h.OnConnectionOpened(ctx, emitter, id.NewConnectionID())
	_ = h.OnConnectionRemoved(ctx, emitter, conn)

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "beacon.connections.opened"); got != 2 {
		t.Errorf("connections.opened = %d, want 2", got)
	}
	if got := sumValue(t, rm, "beacon.connections.removed"); got != 1 {
		t.Errorf("connections.removed = %d, want 1", got)
	}
}

func TestMetricsHook_BroadcastFanout(t *testing.T) {
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))

	_ = h.OnBroadcastSent(context.Background(), id.NewEmitterID(), "int", 5)

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "beacon.broadcasts"); got != 1 {
		t.Errorf("broadcasts = %d, want 1", got)
	}

	m := findMetric(rm, "beacon.broadcast.fanout")
	if m == nil {
		t.Fatal("beacon.broadcast.fanout metric not found")
	}
	hist, ok := m.Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatalf("expected Histogram[int64] data type, got %T", m.Data)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no fanout data points recorded")
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 || dp.Sum != 5 {
		t.Errorf("fanout count/sum = %d/%d, want 1/5", dp.Count, dp.Sum)
	}

	// Verify signal attribute.
	found := false
	for _, attr := range dp.Attributes.ToSlice() {
		if string(attr.Key) == "signal" && attr.Value.AsString() == "int" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected signal=int attribute on fanout histogram")
	}
}

func TestMetricsHook_FailureReasons(t *testing.T) {
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))

	ctx := context.Background()
	conn := id.NewConnectionID()
	_ = h.OnEmissionFailed(ctx, conn, beacon.ErrConnectionClosed)
	_ = h.OnEmissionFailed(ctx, conn, &beacon.DeliveryError{Conn: conn, Err: beacon.ErrConnectionDisabled})
	_ = h.OnEmissionFailed(ctx, conn, beacon.ErrMembership)

	rm := collectMetrics(t, reader)
	m := findMetric(rm, "beacon.emissions.failed")
	if m == nil {
		t.Fatal("beacon.emissions.failed metric not found")
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64] data type, got %T", m.Data)
	}

	reasons := map[string]int64{}
	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == "reason" {
				reasons[attr.Value.AsString()] += dp.Value
			}
		}
	}
	for _, want := range []string{"closed", "disabled", "membership"} {
		if reasons[want] != 1 {
			t.Errorf("reason %q count = %d, want 1", want, reasons[want])
		}
	}
}

func TestMetricsHook_EndToEnd(t *testing.T) {
	// Wire the hook into a live emitter and check the counters after a
	// real dispatch sequence.
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))

	e := beacon.New(beacon.WithHooks(h))

	c1, err := beacon.Connect(e, func(_ context.Context, n int) (any, error) {
		return n, nil
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	beacon.Connect(e, func(_ context.Context, _ int) (any, error) {
		return nil, nil
	})

	beacon.Broadcast(context.Background(), e, 1)
	if _, err := beacon.Capture(context.Background(), e, 2, c1).Await(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	beacon.Disconnect(e, c1)
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "beacon.connections.opened"); got != 2 {
		t.Errorf("connections.opened = %d, want 2", got)
	}
	if got := sumValue(t, rm, "beacon.connections.removed"); got != 1 {
		t.Errorf("connections.removed = %d, want 1", got)
	}
	if got := sumValue(t, rm, "beacon.broadcasts"); got != 2 {
		t.Errorf("broadcasts = %d, want 2 (direct + capture replay)", got)
	}
	if got := sumValue(t, rm, "beacon.captures"); got != 1 {
		t.Errorf("captures = %d, want 1", got)
	}
	if got := sumValue(t, rm, "beacon.emitters.closed"); got != 1 {
		t.Errorf("emitters.closed = %d, want 1", got)
	}
}

func TestMetricsHook_SlotPanicRecorded(t *testing.T) {
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))

	e := beacon.New(beacon.WithHooks(h))

	beacon.Connect(e, func(_ context.Context, _ int) (any, error) {
		panic("boom")
	})
	beacon.Broadcast(context.Background(), e, 1)
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "beacon.slot.panics"); got != 1 {
		t.Errorf("slot.panics = %d, want 1", got)
	}
}
