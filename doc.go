// Package beacon provides a typed, concurrency-safe publish/subscribe
// dispatch core for Go. Producers own emitters that raise typed signals;
// consumers attach continuations and receive connection handles that
// control subscriber lifetime and activation independently of the
// registry.
//
// Beacon is designed as a library, not a service. Create an emitter,
// connect handlers as ordinary Go functions, and emit values.
//
// # Quick Start
//
//	e := beacon.New()
//	defer e.Close(context.Background())
//
//	conn, _ := beacon.Connect(e, func(ctx context.Context, n int) (any, error) {
//	    return n + 10, nil
//	})
//
//	beacon.Broadcast(context.Background(), e, 5)       // fire-and-forget
//	agg := beacon.Emit(context.Background(), 5, conn)  // targeted, result-bearing
//	results, err := agg.Await(context.Background())    // []any{15}
//
// # Architecture
//
// Each emitter owns one registry per signal payload type, an independent
// copy-on-write slot list behind an atomic pointer: readers take a single
// atomic load, writers publish whole new snapshots and retry on lost CAS
// races. Registrations are statically typed — connecting a handler whose
// payload type does not match the emission site is a compile error.
//
// Connections gate their slot logically (O(1) atomic enable/disable)
// without touching the registry; Disconnect removes it physically (O(n)
// copy). Every slot continuation runs asynchronously inside the emitter's
// scope, and Close blocks until all spawned work has completed.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package beacon
