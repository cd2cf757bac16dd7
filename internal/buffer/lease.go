package buffer

// Reservation is a write lease over space that is not yet visible to the
// consumer. It is finalized by Commit or CommitN, or abandoned with Release.
type Reservation[T any] struct {
	s     *Split[T]
	gen   uint64
	start int
	n     int
}

// Len returns the number of reserved elements.
func (r Reservation[T]) Len() int {
	return r.n
}

// Slice returns the reserved region for the producer to fill.
func (r Reservation[T]) Slice() []T {
	r.s.check(r.gen)
	return r.s.view(r.start, r.n)
}

// Commit makes the whole reservation visible to the consumer.
func (r Reservation[T]) Commit() {
	r.CommitN(r.n)
}

// CommitN makes the first n reserved elements visible and gives the rest
// back. A reservation placed at the front of the store records the prior
// tail as the wrap boundary.
func (r Reservation[T]) CommitN(n int) {
	if n < 0 || n > r.n {
		panic("buffer: commit length out of range")
	}
	s := r.s
	s.finalize(r.gen)

	if r.start == 0 {
		s.split = s.tail
	}
	s.tail = r.start + n
}

// Release abandons the reservation. Cursors are unchanged and anything written
// into the region is overwritten by a later reservation.
func (r Reservation[T]) Release() {
	if r.s != nil && r.gen == r.s.lease {
		r.s.lease++
	}
}

// Availability is a read lease over data currently visible to the consumer.
// It is finalized by Consume or ConsumeN, or abandoned with Release.
type Availability[T any] struct {
	s     *Split[T]
	gen   uint64
	start int
	n     int
}

// Len returns the number of readable elements. It may be 0.
func (a Availability[T]) Len() int {
	return a.n
}

// Slice returns the readable window.
func (a Availability[T]) Slice() []T {
	a.s.check(a.gen)
	return a.s.view(a.start, a.n)
}

// Consume frees the whole window for reuse by the producer.
func (a Availability[T]) Consume() {
	a.ConsumeN(a.n)
}

// ConsumeN frees the first n elements of the window. Reaching the wrap
// boundary moves head back to the front and clears the boundary.
func (a Availability[T]) ConsumeN(n int) {
	if n < 0 || n > a.n {
		panic("buffer: consume length out of range")
	}
	s := a.s
	s.finalize(a.gen)

	head := s.head + n
	if head == s.split {
		head, s.split = 0, 0
	}
	s.head = head
}

// Release abandons the window without consuming it.
func (a Availability[T]) Release() {
	if a.s != nil && a.gen == a.s.lease {
		a.s.lease++
	}
}
