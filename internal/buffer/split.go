// Package buffer provides memory-managed buffering for the relay pipeline.
//
// The central type is Split, a bipartite ring buffer: a fixed store that hands
// out contiguous write reservations and contiguous read windows. A view never
// spans the end of the store, so callers never copy or scatter across the
// wrap boundary.
package buffer

import "errors"

// ErrLeaseRevoked is the panic value raised when a Reservation or Availability
// is used after it was finalized, released, or superseded by a newer lease.
var ErrLeaseRevoked = errors.New("buffer: lease revoked")

// Cursors is a snapshot of the cursor state of a Split.
type Cursors struct {
	Head  int // start of the oldest unconsumed data
	Tail  int // one past the most recently committed element
	Split int // end of the pre-wrap remainder, 0 when no wrap is pending
}

// Split is a fixed-capacity, single-producer/single-consumer ring buffer that
// only ever exposes contiguous regions of its store.
//
// At most one lease is live at a time. Every call to Reserve or Available
// revokes the previously issued lease, so an abandoned lease can never mutate
// the cursors. Split is not safe for concurrent use; see package stream for
// the synchronized adapters.
type Split[T any] struct {
	store []T
	head  int
	tail  int
	split int
	lease uint64 // generation of the only lease allowed to finalize
}

// New allocates a Split of the given capacity with every slot set to fill.
func New[T any](capacity int, fill T) *Split[T] {
	if capacity < 0 {
		panic("buffer: negative capacity")
	}
	store := make([]T, capacity)
	for i := range store {
		store[i] = fill
	}
	return &Split[T]{store: store}
}

// Wrap builds a Split over a caller-allocated store. The store is adopted
// as-is and must not be used by anything else while the Split is alive.
func Wrap[T any](store []T) *Split[T] {
	return &Split[T]{store: store}
}

// Reserve returns a lease over exactly n contiguous writable elements.
//
// The end of the store is preferred while the buffer is unwrapped; otherwise
// the reservation wraps to the front when the region before head is large
// enough. Nothing changes until the reservation is committed.
func (s *Split[T]) Reserve(n int) (Reservation[T], bool) {
	gen := s.issue()
	if n < 0 {
		return Reservation[T]{}, false
	}

	if s.head <= s.tail && len(s.store)-s.tail >= n {
		return Reservation[T]{s: s, gen: gen, start: s.tail, n: n}, true
	}
	if s.head >= n {
		return Reservation[T]{s: s, gen: gen, start: 0, n: n}, true
	}
	return Reservation[T]{}, false
}

// Available returns a lease over the contiguous readable window. The window
// may be empty; Available never fails.
//
// While a wrap is pending only the pre-wrap remainder [head, split) is
// exposed. Once that remainder has been drained, Available collapses the wrap
// bookkeeping and exposes [0, tail).
func (s *Split[T]) Available() Availability[T] {
	gen := s.issue()

	start, n := s.head, 0
	switch {
	case s.head < s.tail:
		n = s.tail - s.head
	case s.split == 0:
		// empty
	case s.split == s.head:
		s.head, s.split = 0, 0
		start, n = 0, s.tail
	default:
		n = s.split - s.head
	}
	return Availability[T]{s: s, gen: gen, start: start, n: n}
}

// Cap returns the capacity of the backing store.
func (s *Split[T]) Cap() int {
	return len(s.store)
}

// Buffered returns the number of committed elements not yet consumed,
// including data withheld behind the wrap boundary.
func (s *Split[T]) Buffered() int {
	if s.Wrapped() {
		return s.split - s.head + s.tail
	}
	return s.tail - s.head
}

// Wrapped reports whether a pre-wrap remainder is still pending.
func (s *Split[T]) Wrapped() bool {
	return s.split != 0 || s.head > s.tail
}

// Writable returns the largest n for which Reserve(n) grants a region that
// cannot overlap unconsumed data. It is 0 while a wrap is pending.
func (s *Split[T]) Writable() int {
	if s.Wrapped() {
		return 0
	}
	return max(len(s.store)-s.tail, s.head)
}

// Cursors returns the current cursor state.
func (s *Split[T]) Cursors() Cursors {
	return Cursors{Head: s.head, Tail: s.tail, Split: s.split}
}

// Reset discards all data and revokes any outstanding lease. The store
// contents are left untouched.
func (s *Split[T]) Reset() {
	s.head, s.tail, s.split = 0, 0, 0
	s.lease++
}

func (s *Split[T]) issue() uint64 {
	s.lease++
	return s.lease
}

// finalize retires the lease gen. It panics if gen is not the live lease.
func (s *Split[T]) finalize(gen uint64) {
	s.check(gen)
	s.lease++
}

func (s *Split[T]) check(gen uint64) {
	if s == nil || gen != s.lease {
		panic(ErrLeaseRevoked)
	}
}

func (s *Split[T]) view(start, n int) []T {
	return s.store[start : start+n : start+n]
}
