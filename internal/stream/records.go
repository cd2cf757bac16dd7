// Package stream layers goroutine-safe producer/consumer adapters over a
// byte Split buffer.
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
)

var (
	// ErrClosed is returned by Send after the queue is closed.
	ErrClosed = errors.New("stream: queue closed")
	// ErrRecordTooLarge is returned when a framed record cannot fit the buffer.
	ErrRecordTooLarge = errors.New("stream: record exceeds buffer capacity")
	// ErrCorruptFrame is returned when the window does not start with a valid frame header.
	ErrCorruptFrame = errors.New("stream: corrupt frame header")
)

// Observer receives queue activity. Implementations must be safe for
// concurrent use; the producer and the consumer call it from different
// goroutines.
type Observer interface {
	Committed(records, bytes int)
	Consumed(records, bytes int)
	Stalled()
}

// Option configures a Records queue.
type Option func(*Records)

// WithObserver attaches an observer. A nil observer is ignored.
func WithObserver(o Observer) Option {
	return func(q *Records) {
		if o != nil {
			q.observer = o
		}
	}
}

// Records is a framed record queue for one producer and one consumer
// goroutine. Each record is stored as a uvarint length followed by the
// payload, reserved as a single contiguous region, so the consumer always
// sees whole records without copying.
type Records struct {
	mu  sync.Mutex
	buf *buffer.Split[byte]

	readable chan struct{}
	writable chan struct{}
	done     chan struct{}
	closed   bool

	observer Observer
}

// NewRecords creates a queue over buf. The queue owns buf from then on.
func NewRecords(buf *buffer.Split[byte], opts ...Option) *Records {
	q := &Records{
		buf:      buf,
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
		done:     make(chan struct{}),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Send copies payload into the queue as one record, blocking until there is
// room, the queue is closed, or ctx is done.
func (q *Records) Send(ctx context.Context, payload []byte) error {
	return q.SendFunc(ctx, len(payload), func(b []byte) {
		copy(b, payload)
	})
}

// SendFunc reserves a record of n bytes and lets fill write it in place.
// fill runs with the queue locked and must not call back into the queue.
func (q *Records) SendFunc(ctx context.Context, n int, fill func([]byte)) error {
	if n < 0 {
		return fmt.Errorf("stream: negative record length %d", n)
	}
	size := frameSize(n)
	if size > q.buf.Cap() {
		return fmt.Errorf("%w: %d bytes framed, capacity %d", ErrRecordTooLarge, size, q.buf.Cap())
	}

	stalled := false
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if q.buf.Buffered() == 0 {
			q.buf.Reset()
		}
		if size <= q.buf.Writable() {
			r, _ := q.buf.Reserve(size)
			view := r.Slice()
			k := binary.PutUvarint(view, uint64(n))
			fill(view[k:])
			r.Commit()
			q.mu.Unlock()

			signal(q.readable)
			q.observer.Committed(1, size)
			return nil
		}
		q.mu.Unlock()

		if !stalled {
			stalled = true
			q.observer.Stalled()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
		case <-q.writable:
		}
	}
}

// Recv waits for data and hands every whole record in the current window to
// fn, in order. The record slice is only valid during the call. Records are
// consumed once fn returns nil; on error the failing record and everything
// after it stay queued.
//
// Recv returns the number of records consumed. After Close it keeps
// returning records until the queue is drained, then io.EOF.
func (q *Records) Recv(ctx context.Context, fn func(rec []byte) error) (int, error) {
	view, err := q.wait(ctx)
	if err != nil {
		return 0, err
	}

	// The window stays ours until consumed: the producer only reserves
	// regions that cannot overlap unconsumed data.
	off, count := 0, 0
	for off < len(view) {
		n, k := binary.Uvarint(view[off:])
		if k <= 0 || uint64(len(view)-off-k) < n {
			err = ErrCorruptFrame
			break
		}
		if err = fn(view[off+k : off+k+int(n)]); err != nil {
			break
		}
		off += k + int(n)
		count++
	}

	if off > 0 {
		q.mu.Lock()
		q.buf.Available().ConsumeN(off)
		q.mu.Unlock()

		signal(q.writable)
		q.observer.Consumed(count, off)
	}
	return count, err
}

func (q *Records) wait(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		a := q.buf.Available()
		view := a.Slice()
		a.Release()
		closed := q.closed
		q.mu.Unlock()

		if len(view) > 0 {
			return view, nil
		}
		if closed {
			return nil, io.EOF
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.done:
		case <-q.readable:
		}
	}
}

// Close stops the producer side. Pending records remain readable.
func (q *Records) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}

// Buffered returns the number of framed bytes waiting to be consumed.
func (q *Records) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Buffered()
}

// Cursors returns a snapshot of the underlying buffer's cursors.
func (q *Records) Cursors() buffer.Cursors {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Cursors()
}

// Cap returns the capacity of the underlying buffer.
func (q *Records) Cap() int {
	return q.buf.Cap()
}

func frameSize(n int) int {
	var hdr [binary.MaxVarintLen64]byte
	return binary.PutUvarint(hdr[:], uint64(n)) + n
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

type nopObserver struct{}

func (nopObserver) Committed(int, int) {}
func (nopObserver) Consumed(int, int)  {}
func (nopObserver) Stalled()           {}
