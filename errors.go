package beacon

import (
	"errors"
	"fmt"

	"github.com/xraph/beacon/id"
)

var (
	// Emission errors. Surfaced through a failed Aggregate, never panics.
	ErrConnectionClosed   = errors.New("beacon: connection closed")
	ErrConnectionDisabled = errors.New("beacon: connection disabled")
	ErrMembership         = errors.New("beacon: connection not owned by emitter, or duplicated")

	// Lifecycle errors.
	ErrEmitterClosed = errors.New("beacon: emitter closed")
)

// DeliveryError attaches the failing connection's identity to one of the
// sentinel emission errors. Use errors.Is to match the kind and a type
// assertion (or errors.As) to recover the connection ID.
type DeliveryError struct {
	// Conn identifies the connection the failure refers to. It is the
	// nil ID when the failure is not attributable to one connection
	// (e.g. a duplicate pair in a capture set).
	Conn id.ConnectionID

	// Err is one of ErrConnectionClosed, ErrConnectionDisabled, or
	// ErrMembership.
	Err error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Conn.IsNil() {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (connection %s)", e.Err, e.Conn)
}

// Unwrap returns the underlying error kind.
func (e *DeliveryError) Unwrap() error { return e.Err }
