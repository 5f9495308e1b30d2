package beacon

import (
	"sync/atomic"

	"github.com/xraph/beacon/internal/probeset"
)

// registry is the per-emitter, per-signal-type slot collection. The
// published snapshot is never mutated in place: writers build a whole new
// slice with the insertion or removal applied and CompareAndSwap it in,
// retrying on a lost race. Readers take a single atomic load and see a
// complete, consistent view.
type registry[T any] struct {
	slots atomic.Pointer[[]*slot[T]]
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{}
}

// snapshot returns the currently published slot list. The returned slice
// must not be mutated.
func (r *registry[T]) snapshot() []*slot[T] {
	p := r.slots.Load()
	if p == nil {
		return nil
	}
	return *p
}

// register allocates a slot for fn, appends it to a new snapshot, and
// publishes it. Always succeeds; retries on CAS races.
func (r *registry[T]) register(fn Handler[T]) *slot[T] {
	s := newSlot(fn)

	for {
		old := r.slots.Load()
		var next []*slot[T]
		if old != nil {
			next = make([]*slot[T], len(*old), len(*old)+1)
			copy(next, *old)
		}
		next = append(next, s)
		if r.slots.CompareAndSwap(old, &next) {
			return s
		}
	}
}

// unregister publishes a snapshot with s physically removed. Returns
// false if s is not present, so a second unregister of the same slot
// safely reports failure.
func (r *registry[T]) unregister(s *slot[T]) bool {
	for {
		old := r.slots.Load()
		if old == nil {
			return false
		}

		idx := -1
		for i, cur := range *old {
			if cur == s {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}

		next := make([]*slot[T], 0, len(*old)-1)
		next = append(next, (*old)[:idx]...)
		next = append(next, (*old)[idx+1:]...)
		if r.slots.CompareAndSwap(old, &next) {
			return true
		}
	}
}

// check confirms that every slot in members is currently present in the
// registry and that no slot appears twice. It builds a disposable
// power-of-two linear-probing presence set over the member identities,
// then scans the snapshot counting matches; success requires the match
// count to equal the member count.
func (r *registry[T]) check(members []*slot[T]) error {
	if len(members) == 0 {
		return ErrMembership
	}

	set := probeset.New[*slot[T]](len(members))
	for _, m := range members {
		if m == nil || !set.Add(m) {
			return ErrMembership
		}
	}

	count := 0
	for _, s := range r.snapshot() {
		if set.Contains(s) {
			count++
		}
	}
	if count != len(members) {
		return ErrMembership
	}
	return nil
}

// closeAll marks every slot closed and publishes an empty snapshot.
// Called when the owning emitter closes; outstanding connections become
// permanently inert.
func (r *registry[T]) closeAll() {
	for {
		old := r.slots.Load()
		if old == nil || len(*old) == 0 {
			return
		}
		empty := make([]*slot[T], 0)
		if r.slots.CompareAndSwap(old, &empty) {
			for _, s := range *old {
				s.closed.Store(true)
			}
			return
		}
	}
}
