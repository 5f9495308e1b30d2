package audithook

// Audit event actions. Each constant corresponds to one lifecycle hook and
// becomes the Action field of the audit event.
const (
	ActionConnectionOpened  = "connection.opened"
	ActionConnectionRemoved = "connection.removed"
	ActionBroadcastSent     = "broadcast.sent"
	ActionCaptureSent       = "capture.sent"
	ActionEmissionFailed    = "emission.failed"
	ActionSlotPanicked      = "slot.panicked"
	ActionEmitterClosed     = "emitter.closed"
)

// Audit event categories group related actions.
const (
	CategoryConnection = "beacon.connection"
	CategoryDispatch   = "beacon.dispatch"
	CategoryEmitter    = "beacon.emitter"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceConnection = "connection"
	ResourceSignal     = "signal"
	ResourceEmitter    = "emitter"
)

// AllActions returns every action this hook can emit.
func AllActions() []string {
	return []string{
		ActionConnectionOpened,
		ActionConnectionRemoved,
		ActionBroadcastSent,
		ActionCaptureSent,
		ActionEmissionFailed,
		ActionSlotPanicked,
		ActionEmitterClosed,
	}
}
