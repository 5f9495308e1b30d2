// Package audithook bridges beacon lifecycle events to an immutable audit
// trail backend.
//
// Every connection, dispatch, and emitter lifecycle hook emits a structured
// audit event through the [Recorder] interface. The hook assigns severity
// levels (info for normal operations, warning for failed emissions,
// critical for slot panics) and rich metadata (signal name, fanout,
// connection IDs, errors).
//
// # Usage
//
//	e := beacon.New(beacon.WithHooks(
//	    audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	        return trail.Append(ctx, evt.Action, evt.Resource, evt.ResourceID, evt.Metadata)
//	    })),
//	))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionEmissionFailed,
//	        audithook.ActionSlotPanicked,
//	    ),
//	)
package audithook
