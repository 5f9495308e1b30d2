// Package probeset provides a disposable, fixed-capacity presence set used
// by registry membership checks. The table is sized to the next power of
// two at or above the expected key count, uses linear probing, and supports
// no removal: it is built per call and discarded, never kept as an index.
package probeset

import "hash/maphash"

// Set is an open-addressing presence set over comparable keys.
// It is not safe for concurrent use; callers build one per check.
type Set[K comparable] struct {
	seed maphash.Seed
	keys []K
	used []bool
	mask uint64
	n    int
}

// New creates a set with capacity for at least n keys.
func New[K comparable](n int) *Set[K] {
	size := nextPow2(n)
	return &Set[K]{
		seed: maphash.MakeSeed(),
		keys: make([]K, size),
		used: make([]bool, size),
		mask: uint64(size - 1),
	}
}

// Add inserts k and reports whether it was newly added.
// Returns false for duplicates and when the table is full.
func (s *Set[K]) Add(k K) bool {
	if s.n == len(s.keys) {
		return false
	}
	idx := maphash.Comparable(s.seed, k) & s.mask
	for s.used[idx] {
		if s.keys[idx] == k {
			return false
		}
		idx = (idx + 1) & s.mask
	}
	s.used[idx] = true
	s.keys[idx] = k
	s.n++
	return true
}

// Contains reports whether k is present.
func (s *Set[K]) Contains(k K) bool {
	idx := maphash.Comparable(s.seed, k) & s.mask
	// The probe is bounded by the table size so a full table cannot loop.
	for range s.keys {
		if !s.used[idx] {
			return false
		}
		if s.keys[idx] == k {
			return true
		}
		idx = (idx + 1) & s.mask
	}
	return false
}

// Len returns the number of keys added.
func (s *Set[K]) Len() int { return s.n }

// nextPow2 rounds n up to the next power of two, with a floor of 1.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	v := uint64(n - 1)
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return int(v + 1)
}
