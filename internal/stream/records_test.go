package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
)

type countingObserver struct {
	committed atomic.Int64
	consumed  atomic.Int64
	bytesIn   atomic.Int64
	bytesOut  atomic.Int64
	stalls    atomic.Int64
}

func (o *countingObserver) Committed(records, bytes int) {
	o.committed.Add(int64(records))
	o.bytesIn.Add(int64(bytes))
}

func (o *countingObserver) Consumed(records, bytes int) {
	o.consumed.Add(int64(records))
	o.bytesOut.Add(int64(bytes))
}

func (o *countingObserver) Stalled() { o.stalls.Add(1) }

func newTestRecords(t *testing.T, capacity int, opts ...Option) *Records {
	t.Helper()
	return NewRecords(buffer.New[byte](capacity, 0), opts...)
}

func collect(t *testing.T, q *Records) []string {
	t.Helper()
	var out []string
	for {
		_, err := q.Recv(context.Background(), func(rec []byte) error {
			out = append(out, string(rec))
			return nil
		})
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
	}
}

func TestRecordsSendRecv(t *testing.T) {
	q := newTestRecords(t, 64)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, []byte("alpha")))
	require.NoError(t, q.Send(ctx, []byte("")))
	require.NoError(t, q.Send(ctx, []byte("gamma")))
	q.Close()

	assert.Equal(t, []string{"alpha", "", "gamma"}, collect(t, q))
}

func TestRecordsSendAfterClose(t *testing.T) {
	q := newTestRecords(t, 16)
	q.Close()
	q.Close()

	err := q.Send(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRecordsTooLarge(t *testing.T) {
	q := newTestRecords(t, 16)

	err := q.Send(context.Background(), make([]byte, 16))
	assert.ErrorIs(t, err, ErrRecordTooLarge)

	// 15 bytes plus a one byte header fills the buffer exactly.
	require.NoError(t, q.Send(context.Background(), make([]byte, 15)))
}

func TestRecordsFullCapacityAfterDrain(t *testing.T) {
	q := newTestRecords(t, 16)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, []byte("abcdefg")))
	_, err := q.Recv(ctx, func([]byte) error { return nil })
	require.NoError(t, err)
	assert.NotZero(t, q.Cursors().Head)

	// Cursors sit mid-buffer but the queue is empty, so a full-size record fits.
	require.NoError(t, q.Send(ctx, make([]byte, 15)))
	assert.Equal(t, 16, q.Buffered())
}

func TestRecordsRecvErrorKeepsRecord(t *testing.T) {
	q := newTestRecords(t, 64)
	ctx := context.Background()
	for _, s := range []string{"one", "two", "three"} {
		require.NoError(t, q.Send(ctx, []byte(s)))
	}

	boom := errors.New("boom")
	n, err := q.Recv(ctx, func(rec []byte) error {
		if string(rec) == "two" {
			return boom
		}
		return nil
	})
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, boom)

	q.Close()
	assert.Equal(t, []string{"two", "three"}, collect(t, q))
}

func TestRecordsSendFunc(t *testing.T) {
	q := newTestRecords(t, 32)
	ctx := context.Background()

	err := q.SendFunc(ctx, 4, func(b []byte) {
		copy(b, "zero")
	})
	require.NoError(t, err)
	assert.Error(t, q.SendFunc(ctx, -1, func([]byte) {}))

	q.Close()
	assert.Equal(t, []string{"zero"}, collect(t, q))
}

func TestRecordsRecvContextCancel(t *testing.T) {
	q := newTestRecords(t, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Recv(ctx, func([]byte) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRecordsSendBlocksUntilConsumed(t *testing.T) {
	obs := &countingObserver{}
	q := newTestRecords(t, 8, WithObserver(obs))
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, []byte("abcdef")))

	sent := make(chan error, 1)
	go func() {
		sent <- q.Send(ctx, []byte("ghijkl"))
	}()

	select {
	case err := <-sent:
		t.Fatalf("send should block while the buffer is full, got %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	n, err := q.Recv(ctx, func([]byte) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, <-sent)

	assert.Equal(t, int64(1), obs.stalls.Load())
	assert.Equal(t, int64(2), obs.committed.Load())
	assert.Equal(t, int64(1), obs.consumed.Load())
}

func TestRecordsSendContextCancel(t *testing.T) {
	q := newTestRecords(t, 8)
	require.NoError(t, q.Send(context.Background(), []byte("abcdef")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Send(ctx, []byte("abc")), context.DeadlineExceeded)
}

func TestRecordsConcurrentOrdering(t *testing.T) {
	obs := &countingObserver{}
	q := newTestRecords(t, 100, WithObserver(obs))
	ctx := context.Background()
	const total = 5000

	var wg sync.WaitGroup
	var sendErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer q.Close()
		for i := 0; i < total; i++ {
			// Varying sizes force wraps at different offsets.
			rec := fmt.Sprintf("%d:%s", i, string(make([]byte, i%37)))
			if err := q.Send(ctx, []byte(rec)); err != nil {
				sendErr = err
				return
			}
		}
	}()

	got := collect(t, q)
	wg.Wait()
	require.NoError(t, sendErr)
	require.Len(t, got, total)
	for i, rec := range got {
		require.Equal(t, fmt.Sprintf("%d:%s", i, string(make([]byte, i%37))), rec)
	}
	assert.Equal(t, obs.bytesIn.Load(), obs.bytesOut.Load())
	assert.Equal(t, 0, q.Buffered())
}
