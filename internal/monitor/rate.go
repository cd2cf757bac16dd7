package monitor

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

type bucket struct {
	at    time.Time
	count int64
}

// RateDetector tracks event rates and detects spikes using a sliding window
// of per-second buckets.
type RateDetector struct {
	mu        sync.Mutex
	window    time.Duration
	buckets   *queue.Queue // *bucket, oldest first
	threshold float64      // spike threshold multiplier (e.g., 3.0 = 3x average)
	now       func() time.Time
}

// NewRateDetector creates a rate detector with the given window duration and spike threshold.
// threshold is the multiplier over the moving average that triggers a spike alert.
func NewRateDetector(window time.Duration, threshold float64) *RateDetector {
	if window < time.Second {
		window = 10 * time.Second
	}
	if threshold <= 0 {
		threshold = 3.0
	}
	return &RateDetector{
		window:    window,
		buckets:   queue.New(),
		threshold: threshold,
		now:       time.Now,
	}
}

// Record adds n events at the current time.
// Returns true if a spike is detected.
func (r *RateDetector) Record(n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	truncated := now.Truncate(time.Second)
	if last := r.last(); last != nil && last.at.Equal(truncated) {
		last.count += int64(n)
	} else {
		r.buckets.Add(&bucket{at: truncated, count: int64(n)})
	}

	return r.isSpiking()
}

// CurrentRate returns events per second over the last window.
func (r *RateDetector) CurrentRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(r.now())

	var total int64
	for i := 0; i < r.buckets.Length(); i++ {
		total += r.buckets.Get(i).(*bucket).count
	}
	return float64(total) / r.window.Seconds()
}

func (r *RateDetector) last() *bucket {
	if r.buckets.Length() == 0 {
		return nil
	}
	return r.buckets.Get(r.buckets.Length() - 1).(*bucket)
}

// prune removes buckets older than the window. Must be called with lock held.
func (r *RateDetector) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	for r.buckets.Length() > 0 && r.buckets.Peek().(*bucket).at.Before(cutoff) {
		r.buckets.Remove()
	}
}

// isSpiking checks if the latest bucket exceeds threshold * average. Must be called with lock held.
func (r *RateDetector) isSpiking() bool {
	n := r.buckets.Length()
	if n < 3 {
		return false // not enough data
	}

	// Average of all but the last bucket.
	var sum int64
	for i := 0; i < n-1; i++ {
		sum += r.buckets.Get(i).(*bucket).count
	}
	avg := float64(sum) / float64(n-1)
	if avg == 0 {
		return false
	}

	return float64(r.last().count) > avg*r.threshold
}
