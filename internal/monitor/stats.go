// Package monitor provides statistics collection for the relay pipeline.
package monitor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
)

// Stats collects pipeline processing metrics in a lock-free manner. It
// satisfies stream.Observer.
type Stats struct {
	recordsIn  atomic.Uint64
	recordsOut atomic.Uint64
	bytesIn    atomic.Uint64
	bytesOut   atomic.Uint64
	matched    atomic.Uint64
	stalls     atomic.Uint64
	startTime  time.Time

	metrics *Metrics
}

// NewStats creates a new statistics collector. metrics may be nil.
func NewStats(metrics *Metrics) *Stats {
	return &Stats{
		startTime: time.Now(),
		metrics:   metrics,
	}
}

// Committed records records framed into the buffer by the producer.
func (s *Stats) Committed(records, bytes int) {
	s.recordsIn.Add(uint64(records))
	s.bytesIn.Add(uint64(bytes))
	if s.metrics != nil {
		s.metrics.committed.Add(float64(records))
		s.metrics.committedBytes.Add(float64(bytes))
	}
}

// Consumed records records released by the consumer.
func (s *Stats) Consumed(records, bytes int) {
	s.recordsOut.Add(uint64(records))
	s.bytesOut.Add(uint64(bytes))
	if s.metrics != nil {
		s.metrics.consumed.Add(float64(records))
		s.metrics.consumedBytes.Add(float64(bytes))
	}
}

// Stalled records a producer that had to wait for free space.
func (s *Stats) Stalled() {
	s.stalls.Add(1)
	if s.metrics != nil {
		s.metrics.stalls.Inc()
	}
}

// RecordMatch increments the counter of records that passed the filters.
func (s *Stats) RecordMatch() {
	s.matched.Add(1)
	if s.metrics != nil {
		s.metrics.matched.Inc()
	}
}

// ObserveBuffer publishes the occupancy of the buffer.
func (s *Stats) ObserveBuffer(c buffer.Cursors, buffered, capacity int) {
	if s.metrics == nil {
		return
	}
	s.metrics.buffered.Set(float64(buffered))
	if capacity > 0 {
		s.metrics.utilization.Set(float64(buffered) / float64(capacity))
	}
	wrapped := 0.0
	if c.Split != 0 || c.Head > c.Tail {
		wrapped = 1
	}
	s.metrics.wrapped.Set(wrapped)
}

// RecordsIn returns the number of records committed.
func (s *Stats) RecordsIn() uint64 { return s.recordsIn.Load() }

// RecordsOut returns the number of records consumed.
func (s *Stats) RecordsOut() uint64 { return s.recordsOut.Load() }

// BytesIn returns the number of framed bytes committed.
func (s *Stats) BytesIn() uint64 { return s.bytesIn.Load() }

// BytesOut returns the number of framed bytes consumed.
func (s *Stats) BytesOut() uint64 { return s.bytesOut.Load() }

// Matched returns the number of records that passed the filters.
func (s *Stats) Matched() uint64 { return s.matched.Load() }

// Stalls returns how often the producer waited for space.
func (s *Stats) Stalls() uint64 { return s.stalls.Load() }

// Elapsed returns the time since monitoring started.
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// Rate returns the consumed records per second.
func (s *Stats) Rate() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.RecordsOut()) / elapsed
}

// Summary returns a formatted summary string.
func (s *Stats) Summary() string {
	out := s.RecordsOut()
	matched := s.Matched()

	matchRate := float64(0)
	if out > 0 {
		matchRate = float64(matched) / float64(out) * 100
	}

	return fmt.Sprintf(
		"── Summary ──\n"+
			"  Records in:    %d (%d bytes)\n"+
			"  Records out:   %d (%d bytes)\n"+
			"  Matched:       %d (%.1f%%)\n"+
			"  Stalls:        %d\n"+
			"  Duration:      %s\n"+
			"  Throughput:    %.0f records/s\n"+
			"─────────────",
		s.RecordsIn(), s.BytesIn(),
		out, s.BytesOut(),
		matched, matchRate,
		s.Stalls(),
		s.Elapsed().Round(time.Millisecond),
		s.Rate(),
	)
}
