package beacon

import (
	"context"

	"github.com/xraph/beacon/scope"
)

// Aggregate is the joined result of a targeted or capture emission: one
// pending result per targeted connection, delivered when all of them
// complete. Emission-time failures (closed, disabled, membership) are
// attached to the aggregate at construction and surface only when it is
// awaited — building an Aggregate never blocks and never panics.
type Aggregate struct {
	futures []*scope.Future
	err     error
}

// failedAggregate builds an aggregate that reports err on Await.
func failedAggregate(err error) *Aggregate {
	return &Aggregate{err: err}
}

// Err returns the emission-time failure attached to the aggregate, if
// any, without waiting for results. A nil Err does not imply the handlers
// will succeed — their errors are only visible through Await.
func (a *Aggregate) Err() error { return a.err }

// Len returns the number of pending results.
func (a *Aggregate) Len() int { return len(a.futures) }

// Await blocks until every targeted slot has completed or the context
// expires, and returns the results in targeting order. If the emission
// failed up front, that failure is returned and no results are produced.
// If a handler returns an error, Await reports the first one encountered
// in targeting order; the remaining continuations keep running under the
// emitter's scope either way.
func (a *Aggregate) Await(ctx context.Context) ([]any, error) {
	if a.err != nil {
		return nil, a.err
	}

	results := make([]any, len(a.futures))
	for i, f := range a.futures {
		v, err := f.Await(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return results, nil
}
